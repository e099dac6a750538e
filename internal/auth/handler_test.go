package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farzalfian/bumdes/internal/middleware"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(t)
	h := NewHandler(svc, true, clockwork.NewFakeClockAt(time.Now()), discardLogger())

	r := chi.NewRouter()
	r.Post("/auth/login", h.Login)
	r.Post("/auth/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(testSecret))
		r.Post("/auth/password", h.ChangePassword)
		r.Get("/auth/me", h.Me)
	})
	return r
}

func postJSON(r http.Handler, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:5000"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestHandler_LoginFlow(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(r, "/auth/login", `{"username":"admin","password":"rahasia123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, int(TokenTTL.Seconds()), c.MaxAge)

	var body struct {
		Success bool      `json:"success"`
		Data    loginData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, c.Value, body.Data.Token)
	assert.Equal(t, "Pengelola BUMDes", body.Data.Admin.Name)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	me := httptest.NewRecorder()
	r.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"name":"Pengelola BUMDes"`)
}

func TestHandler_LoginRejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "malformed", body: `{`, wantCode: http.StatusBadRequest},
		{name: "missing password", body: `{"username":"admin"}`, wantCode: http.StatusBadRequest},
		{name: "wrong password", body: `{"username":"admin","password":"salah"}`, wantCode: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"tamu","password":"rahasia123"}`, wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(newTestRouter(t), "/auth/login", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestHandler_LoginThrottled(t *testing.T) {
	r := newTestRouter(t)
	for i := 0; i < loginBurst; i++ {
		rec := postJSON(r, "/auth/login", `{"username":"admin","password":"salah"}`, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := postJSON(r, "/auth/login", `{"username":"admin","password":"rahasia123"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHandler_LoginThrottleIgnoresForwardedHeaders(t *testing.T) {
	r := newTestRouter(t)
	send := func(i int) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"salah"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < loginBurst; i++ {
		require.Equal(t, http.StatusUnauthorized, send(i).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, send(loginBurst).Code)
}

func TestHandler_Logout(t *testing.T) {
	rec := postJSON(newTestRouter(t), "/auth/logout", ``, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	c := sessionCookie(t, rec)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestHandler_ChangePassword(t *testing.T) {
	r := newTestRouter(t)
	login := postJSON(r, "/auth/login", `{"username":"admin","password":"rahasia123"}`, nil)
	c := sessionCookie(t, login)

	rec := postJSON(r, "/auth/password", `{"currentPassword":"rahasia123","newPassword":"abc"}`, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 6 characters")

	rec = postJSON(r, "/auth/password", `{"currentPassword":"salah","newPassword":"abcdef"}`, c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "current password is incorrect")

	rec = postJSON(r, "/auth/password", `{"currentPassword":"rahasia123","newPassword":"abcdef"}`, c)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(r, "/auth/password", `{"currentPassword":"abcdef","newPassword":"ghijkl"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
