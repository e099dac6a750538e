package asset

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farzalfian/bumdes/internal/imaging"
)

type countingTranscoder struct {
	inner Transcoder
	calls int
}

func (c *countingTranscoder) Transcode(data []byte) ([]byte, error) {
	c.calls++
	return c.inner.Transcode(data)
}

type failingTranscoder struct{}

func (failingTranscoder) Transcode([]byte) ([]byte, error) {
	return nil, errors.New("unsupported")
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 12; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 20), G: uint8(y * 30), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/asset/{file}", h.Serve)
	return r
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestServe_TranscodesToWebP(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "keripik.png"))
	router := newRouter(NewHandler(dir, imaging.NewWebPTranscoder(0), 0, discard))

	rec := get(router, "/api/v1/asset/keripik")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
	body := rec.Body.Bytes()
	require.GreaterOrEqual(t, len(body), 12)
	assert.Equal(t, "RIFF", string(body[0:4]))
	assert.Equal(t, "WEBP", string(body[8:12]))
}

func TestServe_NotFound(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "keripik.png"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catatan.txt"), []byte("bukan gambar"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.png"), 0o755))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: "/api/v1/asset/madu"},
		{name: "unsupported extension", path: "/api/v1/asset/catatan"},
		{name: "directory", path: "/api/v1/asset/folder"},
		{name: "prefix only", path: "/api/v1/asset/keri"},
		{name: "dot name", path: "/api/v1/asset/..keripik"},
	}
	router := newRouter(NewHandler(dir, imaging.NewWebPTranscoder(0), 0, discard))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(router, tt.path)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Contains(t, rec.Body.String(), "asset not found")
		})
	}
}

func TestServe_MissingDirectory(t *testing.T) {
	router := newRouter(NewHandler(filepath.Join(t.TempDir(), "absent"), imaging.NewWebPTranscoder(0), 0, discard))

	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/asset/keripik").Code)
}

func TestServe_TranscodeFailureIsNotFound(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "keripik.png"))
	router := newRouter(NewHandler(dir, failingTranscoder{}, 0, discard))

	assert.Equal(t, http.StatusNotFound, get(router, "/api/v1/asset/keripik").Code)
}

func TestServe_CachesUntilFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keripik.png")
	writePNG(t, path)

	tr := &countingTranscoder{inner: imaging.NewWebPTranscoder(0)}
	router := newRouter(NewHandler(dir, tr, 4, discard))

	first := get(router, "/api/v1/asset/keripik")
	second := get(router, "/api/v1/asset/keripik")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, 1, tr.calls)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	require.Equal(t, http.StatusOK, get(router, "/api/v1/asset/keripik").Code)
	assert.Equal(t, 2, tr.calls)
}
