package product

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farzalfian/bumdes/internal/response"
	"github.com/farzalfian/bumdes/internal/upload"
)

// Handler holds HTTP handlers for product endpoints.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler creates a new product Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With("component", "product_handler")}
}

// List godoc
//
//	@Summary		List products
//	@Description	Newest first. search matches name, description and category.
//	@Tags			products
//	@Produce		json
//	@Param			search		query		string	false	"Free-text search"
//	@Param			category	query		string	false	"Category filter"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			max			query		int		false	"Page size"		default(10)
//	@Success		200			{object}	response.Envelope{data=Page}
//	@Failure		500			{object}	response.Envelope
//	@Router			/products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("max"))

	res, err := h.svc.List(r.Context(), ListParams{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Page:     page,
		Max:      size,
	})
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		response.InternalError(w)
		return
	}
	response.OK(w, res)
}

// Get godoc
//
//	@Summary	Get product
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	response.Envelope{data=Product}
//	@Failure	404	{object}	response.Envelope
//	@Router		/products/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// Create godoc
//
//	@Summary		Create product
//	@Description	Image fields may carry data:image/...;base64 URLs; they are converted to WebP and stored first.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		Input	true	"Product"
//	@Success		201		{object}	response.Envelope{data=Product}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !response.DecodeJSON(w, r, &in, response.MaxImageJSONBody) {
		return
	}

	p, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

// Update godoc
//
//	@Summary	Update product
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string	true	"Product ID"
//	@Param		request	body		Input	true	"Product"
//	@Success	200		{object}	response.Envelope{data=Product}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/products/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !response.DecodeJSON(w, r, &in, response.MaxImageJSONBody) {
		return
	}

	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// Delete godoc
//
//	@Summary	Delete product
//	@Tags		products
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Product ID"
//	@Success	200	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/products/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, nil)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "product not found")
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, upload.ErrSaveFailed):
		response.ImageSaveFailed(w)
	default:
		h.logger.Error("product request failed", "error", err)
		response.InternalError(w)
	}
}
