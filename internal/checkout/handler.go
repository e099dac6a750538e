package checkout

import (
	"errors"
	"net/http"

	"github.com/farzalfian/bumdes/internal/response"
)

// Handler holds the HTTP handler for checkout.
type Handler struct {
	builder *Builder
}

// NewHandler creates a new checkout Handler.
func NewHandler(builder *Builder) *Handler {
	return &Handler{builder: builder}
}

type checkoutRequest struct {
	Items []Item `json:"items"`
}

// Checkout godoc
//
//	@Summary		Checkout via WhatsApp
//	@Description	Prices the cart (free shipping above Rp 500.000, otherwise Rp 20.000) and returns a wa.me link with the order message.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		checkoutRequest	true	"Cart"
//	@Success		200		{object}	response.Envelope{data=Quote}
//	@Failure		400		{object}	response.Envelope
//	@Router			/checkout [post]
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !response.DecodeJSON(w, r, &req, response.MaxJSONBody) {
		return
	}

	q, err := h.builder.Quote(req.Items)
	if errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrInvalidItem) {
		response.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, q)
}
