package product

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(saver *fakeSaver) http.Handler {
	h := NewHandler(NewService(newMemStore(), saver, discardLogger()), discardLogger())
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Get("/products/{id}", h.Get)
	r.Post("/products", h.Create)
	r.Put("/products/{id}", h.Update)
	r.Delete("/products/{id}", h.Delete)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const productJSON = `{"name":"Madu Hutan","description":"Asli","category":"Minuman",
	"thumbnailURL":"/uploads/2025/01/madu.webp","imageURL":[],"price":85000,"stockStatus":true,"stockAmount":3}`

func TestHandler_CRUD(t *testing.T) {
	r := newTestRouter(&fakeSaver{})

	rec := do(r, http.MethodPost, "/products", productJSON)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID
	require.NotEmpty(t, id)

	rec = do(r, http.MethodGet, "/products/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Madu Hutan"`)

	rec = do(r, http.MethodPut, "/products/"+id, strings.Replace(productJSON, "Madu Hutan", "Madu Klanceng", 1))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Madu Klanceng"`)

	rec = do(r, http.MethodGet, "/products?search=klanceng&page=1&max=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Data.Total)
	assert.Equal(t, 5, page.Data.Max)

	rec = do(r, http.MethodDelete, "/products/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Errors(t *testing.T) {
	r := newTestRouter(&fakeSaver{})

	rec := do(r, http.MethodPost, "/products", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPost, "/products", `{"name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "category is required")

	rec = do(r, http.MethodPut, "/products/prod_missing", productJSON)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodDelete, "/products/prod_missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_EmptyListIsArray(t *testing.T) {
	rec := do(newTestRouter(&fakeSaver{}), http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":{"data":[]`)
}
