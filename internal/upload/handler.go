package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/farzalfian/bumdes/internal/middleware"
	"github.com/farzalfian/bumdes/internal/ratelimit"
	"github.com/farzalfian/bumdes/internal/response"
)

// maxRequestBody bounds a whole multipart request.
const maxRequestBody = MaxFilesPerUpload*MaxFileSize + 1<<20

// RateLimiter decides whether an identity has exceeded its upload budget.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, identifier string) (bool, error)
}

// SingleResponse is returned for a single-file upload.
type SingleResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// BatchResponse is returned for a multi-file upload.
type BatchResponse struct {
	Success  bool     `json:"success"`
	URLs     []string `json:"urls"`
	Warnings []string `json:"warnings,omitempty"`
}

// Handler holds the HTTP handler for image uploads.
type Handler struct {
	svc     *Service
	limiter RateLimiter
	logger  *slog.Logger
}

// NewHandler creates a new upload Handler.
func NewHandler(svc *Service, limiter RateLimiter, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, limiter: limiter, logger: logger.With("component", "upload_handler")}
}

// Upload godoc
//
//	@Summary		Upload images
//	@Description	Validates, converts to WebP and stores one image (field "file") or, with multiple=true, up to 10 images (field "files").
//	@Tags			upload
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file		formData	file	false	"Single image"
//	@Param			files		formData	file	false	"Images when multiple=true"
//	@Param			multiple	formData	string	false	"Set to true for a batch upload"
//	@Success		200			{object}	BatchResponse
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		429			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized. Please login first.")
		return
	}

	limited, err := h.limiter.IsRateLimited(r.Context(), ratelimit.AdminIdentifier(admin.ID))
	if err != nil {
		h.logger.Error("rate limiter unavailable", "admin_id", admin.ID, "error", err)
		response.InternalError(w)
		return
	}
	if limited {
		response.TooManyRequests(w, "Too many upload requests. Please try again later.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "Invalid form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	if r.FormValue("multiple") == "true" {
		h.uploadBatch(w, r, admin)
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		response.BadRequest(w, "No file provided")
		return
	}

	url, err := h.svc.UploadOne(r.Context(), partFromHeader(headers[0]))
	if err != nil {
		h.writeError(w, admin, err)
		return
	}

	response.JSON(w, http.StatusOK, SingleResponse{Success: true, URL: url})
}

func (h *Handler) uploadBatch(w http.ResponseWriter, r *http.Request, admin middleware.Admin) {
	headers := r.MultipartForm.File["files"]
	parts := make([]Part, 0, len(headers))
	for _, fh := range headers {
		parts = append(parts, partFromHeader(fh))
	}

	res, err := h.svc.UploadBatch(r.Context(), parts)
	if err != nil {
		h.writeError(w, admin, err)
		return
	}

	h.logger.Info("batch uploaded", "admin_id", admin.ID, "stored", len(res.URLs), "rejected", len(res.Warnings))
	response.JSON(w, http.StatusOK, BatchResponse{Success: true, URLs: res.URLs, Warnings: res.Warnings})
}

func (h *Handler) writeError(w http.ResponseWriter, admin middleware.Admin, err error) {
	var (
		verr     *ValidationError
		rejected *BatchRejectedError
	)
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, verr.Reason)
	case errors.As(err, &rejected):
		response.BadRequest(w, rejected.Error())
	case errors.Is(err, ErrNoFiles):
		response.BadRequest(w, "No files provided")
	case errors.Is(err, ErrTooManyFiles):
		response.BadRequest(w, "Maximum 10 files per upload")
	default:
		if !errors.Is(err, ErrSaveFailed) {
			h.logger.Error("upload failed", "admin_id", admin.ID, "error", err)
		}
		response.ImageSaveFailed(w)
	}
}

func partFromHeader(fh *multipart.FileHeader) Part {
	return Part{
		FileInfo: FileInfo{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
		},
		Open: func() (io.ReadCloser, error) { return fh.Open() },
	}
}
