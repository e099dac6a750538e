package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/farzalfian/bumdes/internal/metrics"
	"github.com/farzalfian/bumdes/internal/middleware"
	"github.com/farzalfian/bumdes/internal/response"
)

// Handler holds HTTP handlers for admin auth endpoints.
type Handler struct {
	svc      *Service
	secure   bool
	throttle *loginThrottle
	logger   *slog.Logger
}

// NewHandler creates a new auth Handler. secureCookie marks the session
// cookie Secure and should be set in production.
func NewHandler(svc *Service, secureCookie bool, clock clockwork.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		secure:   secureCookie,
		throttle: newLoginThrottle(clock, loginRate, loginBurst),
		logger:   logger.With("component", "auth_handler"),
	}
}

type loginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"rahasia123"`
}

type loginData struct {
	Token string           `json:"token" example:"eyJhbGci..."`
	Admin middleware.Admin `json:"admin"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" example:"rahasia123"`
	NewPassword     string `json:"newPassword"     example:"rahasia456"`
}

// Login godoc
//
//	@Summary		Admin login
//	@Description	Verifies username and password and sets the session cookie. The token is also returned in the body.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		429		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.throttle.allow(clientIP(r)) {
		metrics.LoginAttempts.WithLabelValues("throttled").Inc()
		response.TooManyRequests(w, "too many login attempts, please try again later")
		return
	}

	var req loginRequest
	if !response.DecodeJSON(w, r, &req, response.MaxJSONBody) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		response.BadRequest(w, "username and password are required")
		return
	}

	token, admin, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		metrics.LoginAttempts.WithLabelValues("failed").Inc()
		response.Unauthorized(w, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("login failed", "username", req.Username, "error", err)
		response.InternalError(w)
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.logger.Info("admin logged in", "admin_id", admin.ID)

	http.SetCookie(w, h.sessionCookie(token, int(TokenTTL.Seconds())))
	response.OK(w, loginData{Token: token, Admin: middleware.Admin{ID: admin.ID, Name: admin.Name}})
}

// Logout godoc
//
//	@Summary	Admin logout
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	response.Envelope
//	@Router		/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	response.OK(w, nil)
}

// ChangePassword godoc
//
//	@Summary	Change admin password
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		changePasswordRequest	true	"Current and new password"
//	@Success	200		{object}	response.Envelope
//	@Failure	400		{object}	response.Envelope
//	@Failure	401		{object}	response.Envelope
//	@Failure	500		{object}	response.Envelope
//	@Router		/auth/password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized. Please login first.")
		return
	}

	var req changePasswordRequest
	if !response.DecodeJSON(w, r, &req, response.MaxJSONBody) {
		return
	}

	err := h.svc.ChangePassword(r.Context(), admin.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrWrongPassword):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.Unauthorized(w, "Unauthorized. Please login first.")
	case err != nil:
		h.logger.Error("change password failed", "admin_id", admin.ID, "error", err)
		response.InternalError(w)
	default:
		response.OK(w, nil)
	}
}

// Me godoc
//
//	@Summary	Current admin
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	response.Envelope{data=middleware.Admin}
//	@Failure	401	{object}	response.Envelope
//	@Router		/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized. Please login first.")
		return
	}
	response.OK(w, admin)
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// clientIP returns the request's remote host. RemoteAddr is the socket peer
// unless TRUST_PROXY_HEADERS let chi's RealIP rewrite it.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
