package imaging

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	return img
}

func assertWebP(t *testing.T, out []byte, wantW, wantH int) {
	t.Helper()
	require.GreaterOrEqual(t, len(out), 12)
	assert.Equal(t, "RIFF", string(out[0:4]))
	assert.Equal(t, "WEBP", string(out[8:12]))

	cfg, err := nativewebp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, wantW, cfg.Width)
	assert.Equal(t, wantH, cfg.Height)
}

func TestTranscode_Formats(t *testing.T) {
	tests := []struct {
		name   string
		encode func(*bytes.Buffer) error
	}{
		{name: "png", encode: func(b *bytes.Buffer) error { return png.Encode(b, testImage(32, 24)) }},
		{name: "jpeg", encode: func(b *bytes.Buffer) error { return jpeg.Encode(b, testImage(32, 24), nil) }},
		{name: "gif", encode: func(b *bytes.Buffer) error { return gif.Encode(b, testImage(32, 24), nil) }},
		{name: "webp", encode: func(b *bytes.Buffer) error { return nativewebp.Encode(b, testImage(32, 24), nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var src bytes.Buffer
			require.NoError(t, tt.encode(&src))

			out, err := NewWebPTranscoder(0).Transcode(src.Bytes())
			require.NoError(t, err)
			assertWebP(t, out, 32, 24)
		})
	}
}

func TestTranscode_ScalesDown(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, testImage(64, 16)))

	out, err := NewWebPTranscoder(32).Transcode(src.Bytes())
	require.NoError(t, err)
	assertWebP(t, out, 32, 8)

	src.Reset()
	require.NoError(t, png.Encode(&src, testImage(10, 40)))
	out, err = NewWebPTranscoder(20).Transcode(src.Bytes())
	require.NoError(t, err)
	assertWebP(t, out, 5, 20)
}

func TestTranscode_Garbage(t *testing.T) {
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0x00}, 200)...)

	_, err := NewWebPTranscoder(0).Transcode(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")
}

func TestNewWebPTranscoder_Defaults(t *testing.T) {
	assert.Equal(t, DefaultMaxDimension, NewWebPTranscoder(0).maxDimension)
	assert.Equal(t, DefaultMaxDimension, NewWebPTranscoder(-3).maxDimension)
	assert.Equal(t, 800, NewWebPTranscoder(800).maxDimension)
}

// hugePNG returns a small, well-formed PNG whose header declares w x h RGBA pixels.
func hugePNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var out bytes.Buffer
	out.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		require.NoError(t, binary.Write(&out, binary.BigEndian, uint32(len(data))))
		out.WriteString(typ)
		out.Write(data)
		crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
		require.NoError(t, binary.Write(&out, binary.BigEndian, crc))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8], ihdr[9] = 8, 6 // 8-bit RGBA
	chunk("IHDR", ihdr)

	var idat bytes.Buffer
	zw := zlib.NewWriter(&idat)
	_, err := zw.Write(make([]byte, 64<<10))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	chunk("IDAT", idat.Bytes())
	chunk("IEND", nil)

	return out.Bytes()
}

func TestTranscode_RejectsOversizedHeader(t *testing.T) {
	data := hugePNG(t, 40000, 40000)
	require.Less(t, len(data), 4096)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 40000, cfg.Width)

	_, err = NewWebPTranscoder(0).Transcode(data)
	assert.ErrorIs(t, err, ErrTooManyPixels)
}

func TestTranscode_PixelLimitBoundary(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, testImage(20, 10)))

	tr := NewWebPTranscoder(0)
	tr.maxPixels = 200
	out, err := tr.Transcode(src.Bytes())
	require.NoError(t, err)
	assertWebP(t, out, 20, 10)

	tr.maxPixels = 199
	_, err = tr.Transcode(src.Bytes())
	assert.ErrorIs(t, err, ErrTooManyPixels)
}
