// Package imaging converts uploaded images to WebP.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"time"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/farzalfian/bumdes/internal/metrics"
)

// DefaultMaxDimension bounds the longer edge of a stored image.
const DefaultMaxDimension = 1920

// MaxInputPixels caps width*height of a source image before it is decoded.
// Headers are checked first so a small file cannot claim a huge bitmap.
const MaxInputPixels = 0x3FFF * 0x3FFF

// ErrTooManyPixels is returned for images whose header exceeds MaxInputPixels.
var ErrTooManyPixels = errors.New("image exceeds pixel limit")

// WebPTranscoder decodes JPEG, PNG, GIF or WebP input, scales it down to
// fit maxDimension and re-encodes it as WebP.
type WebPTranscoder struct {
	maxDimension int
	maxPixels    int64
}

// NewWebPTranscoder creates a transcoder. maxDimension <= 0 uses DefaultMaxDimension.
func NewWebPTranscoder(maxDimension int) *WebPTranscoder {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &WebPTranscoder{maxDimension: maxDimension, maxPixels: MaxInputPixels}
}

// Transcode returns the WebP encoding of data.
func (t *WebPTranscoder) Transcode(data []byte) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.TranscodeDuration.Observe(time.Since(start).Seconds()) }()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > t.maxPixels {
		return nil, fmt.Errorf("%w: %s %dx%d", ErrTooManyPixels, format, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, t.fit(img), nil); err != nil {
		return nil, fmt.Errorf("encode %s as webp: %w", format, err)
	}
	return buf.Bytes(), nil
}

// fit scales img so neither edge exceeds maxDimension, keeping the aspect ratio.
func (t *WebPTranscoder) fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= t.maxDimension && h <= t.maxDimension {
		return img
	}

	if w >= h {
		h = h * t.maxDimension / w
		w = t.maxDimension
	} else {
		w = w * t.maxDimension / h
		h = t.maxDimension
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
