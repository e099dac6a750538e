package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/farzalfian/bumdes/internal/response"
)

// TokenCookie is the name of the cookie holding the admin JWT.
const TokenCookie = "token"

// contextKey is an unexported type for context keys in this package.
type contextKey string

// adminKey is the context key for the authenticated admin.
const adminKey contextKey = "admin"

// ErrInvalidToken is returned for missing, malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Admin is the identity carried by an admin JWT.
type Admin struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WithAdmin returns a copy of ctx carrying admin.
func WithAdmin(ctx context.Context, admin Admin) context.Context {
	return context.WithValue(ctx, adminKey, admin)
}

// AdminFromContext returns the authenticated admin, if any.
func AdminFromContext(ctx context.Context) (Admin, bool) {
	admin, ok := ctx.Value(adminKey).(Admin)
	if !ok || admin.ID == "" {
		return Admin{}, false
	}
	return admin, true
}

// ParseAdminToken verifies an HMAC-signed admin JWT and returns its identity.
func ParseAdminToken(tokenString, jwtSecret string) (Admin, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return Admin{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Admin{}, ErrInvalidToken
	}

	id, _ := claims["id"].(string)
	name, _ := claims["name"].(string)
	if id == "" {
		return Admin{}, ErrInvalidToken
	}
	return Admin{ID: id, Name: name}, nil
}

// RequireAdmin returns middleware that validates the admin JWT from the
// token cookie (or a Bearer Authorization header) and injects the admin
// into the request context.
func RequireAdmin(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := tokenFromRequest(r)
			if tokenString == "" {
				response.Unauthorized(w, "Unauthorized. Please login first.")
				return
			}

			admin, err := ParseAdminToken(tokenString, jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Unauthorized. Please login first.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
