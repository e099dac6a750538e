package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name       string
		body       string
		limit      int64
		wantOK     bool
		wantStatus int
		wantError  string
	}{
		{name: "valid", body: `{"name":"Keripik"}`, limit: MaxJSONBody, wantOK: true},
		{name: "malformed", body: `{"name":`, limit: MaxJSONBody, wantStatus: http.StatusBadRequest, wantError: "invalid request body"},
		{name: "too large", body: `{"name":"` + strings.Repeat("a", 64) + `"}`, limit: 16, wantStatus: http.StatusRequestEntityTooLarge, wantError: "request body too large"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			var p payload
			ok := DecodeJSON(rec, req, &p, tc.limit)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, "Keripik", p.Name)
				assert.Zero(t, rec.Body.Len())
				return
			}
			assert.Equal(t, tc.wantStatus, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.wantError, env.Error)
		})
	}
}

func TestOKOmitsError(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"total": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"total":3}}`, rec.Body.String())
}

func TestImageSaveFailed(t *testing.T) {
	rec := httptest.NewRecorder()
	ImageSaveFailed(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to save image as WebP", decodeEnvelope(t, rec).Error)
}
