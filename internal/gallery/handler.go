package gallery

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farzalfian/bumdes/internal/response"
	"github.com/farzalfian/bumdes/internal/upload"
)

// Handler holds HTTP handlers for gallery endpoints.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler creates a new gallery Handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger.With("component", "gallery_handler")}
}

// List godoc
//
//	@Summary	List gallery entries
//	@Tags		galleries
//	@Produce	json
//	@Param		search	query		string	false	"Matches name or description"
//	@Success	200		{object}	response.Envelope{data=[]Gallery}
//	@Router		/galleries [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	galleries, err := h.svc.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("list galleries failed", "error", err)
		response.InternalError(w)
		return
	}
	response.OK(w, galleries)
}

// Get godoc
//
//	@Summary	Get gallery entry
//	@Tags		galleries
//	@Produce	json
//	@Param		id	path		string	true	"Gallery ID"
//	@Success	200	{object}	response.Envelope{data=Gallery}
//	@Failure	404	{object}	response.Envelope
//	@Router		/galleries/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, g)
}

// Create godoc
//
//	@Summary	Create gallery entry
//	@Tags		galleries
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		Input	true	"Gallery entry"
//	@Success	201		{object}	response.Envelope{data=Gallery}
//	@Failure	400		{object}	response.Envelope
//	@Router		/galleries [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !response.DecodeJSON(w, r, &in, response.MaxImageJSONBody) {
		return
	}
	g, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, g)
}

// Update godoc
//
//	@Summary	Update gallery entry
//	@Tags		galleries
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id		path		string	true	"Gallery ID"
//	@Param		request	body		Input	true	"Gallery entry"
//	@Success	200		{object}	response.Envelope{data=Gallery}
//	@Failure	400		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/galleries/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !response.DecodeJSON(w, r, &in, response.MaxImageJSONBody) {
		return
	}
	g, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, g)
}

// Delete godoc
//
//	@Summary	Delete gallery entry
//	@Tags		galleries
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Gallery ID"
//	@Success	200	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/galleries/{id} [delete]
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
		response.NotFound(w, "gallery not found")
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, upload.ErrSaveFailed):
		response.ImageSaveFailed(w)
	default:
		h.logger.Error("gallery request failed", "error", err)
		response.InternalError(w)
	}
}
