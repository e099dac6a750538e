// Package asset serves the bundled catalogue pictures as WebP.
//
// Source files live in one directory (ASSET_DIR) as <name>.png, .jpg, .jpeg or
// .webp and are looked up by base name. Transcoded output is kept in an
// in-memory LRU keyed by file name, size and modification time, so a replaced
// file is picked up on the next request.
package asset

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/farzalfian/bumdes/internal/metrics"
	"github.com/farzalfian/bumdes/internal/response"
)

const (
	// DefaultCacheSize is the number of transcoded assets kept in memory.
	DefaultCacheSize = 128
	cacheTTL         = time.Hour
)

var sourceExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}

// Transcoder converts image bytes to WebP.
type Transcoder interface {
	Transcode(data []byte) ([]byte, error)
}

// Handler holds the HTTP handler for catalogue assets.
type Handler struct {
	dir        string
	transcoder Transcoder
	cache      *expirable.LRU[string, []byte]
	logger     *slog.Logger
}

// NewHandler creates a Handler reading sources from dir. cacheSize <= 0 uses DefaultCacheSize.
func NewHandler(dir string, transcoder Transcoder, cacheSize int, logger *slog.Logger) *Handler {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Handler{
		dir:        dir,
		transcoder: transcoder,
		cache:      expirable.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
		logger:     logger.With("component", "asset_handler"),
	}
}

// Serve godoc
//
//	@Summary		Catalogue asset
//	@Description	Returns the bundled picture <file>.{png,jpg,jpeg,webp} converted to WebP.
//	@Tags			asset
//	@Produce		image/webp
//	@Param			file	path		string	true	"Base name without extension"
//	@Success		200		{file}		binary
//	@Failure		404		{object}	response.Envelope
//	@Router			/asset/{file} [get]
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "file")
	if !validName(name) {
		response.NotFound(w, "asset not found")
		return
	}

	info, ok := h.find(name)
	if !ok {
		response.NotFound(w, "asset not found")
		return
	}

	key := fmt.Sprintf("%s|%d|%d", info.Name(), info.Size(), info.ModTime().UnixNano())
	out, hit := h.cache.Get(key)
	if hit {
		metrics.AssetCacheResults.WithLabelValues("hit").Inc()
	} else {
		metrics.AssetCacheResults.WithLabelValues("miss").Inc()

		data, err := os.ReadFile(filepath.Join(h.dir, info.Name()))
		if err != nil {
			h.logger.Warn("asset read failed", "file", info.Name(), "error", err)
			response.NotFound(w, "asset not found")
			return
		}
		out, err = h.transcoder.Transcode(data)
		if err != nil {
			h.logger.Warn("asset transcode failed", "file", info.Name(), "error", err)
			response.NotFound(w, "asset not found")
			return
		}
		h.cache.Add(key, out)
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

// find returns the first regular file, in name order, called name.<ext>
// with a supported extension.
func (h *Handler) find(name string) (os.FileInfo, bool) {
	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.logger.Warn("asset dir unreadable", "dir", h.dir, "error", err)
		return nil, false
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), name+".") {
			continue
		}
		if !sourceExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		return info, true
	}
	return nil, false
}

func validName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`)
}
