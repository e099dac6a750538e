package upload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name   string
		file   FileInfo
		valid  bool
		reason string
	}{
		{
			name:  "valid jpeg",
			file:  FileInfo{Name: "photo.jpg", ContentType: "image/jpeg", Size: 2048},
			valid: true,
		},
		{
			name:  "upper case extension",
			file:  FileInfo{Name: "PHOTO.JPEG", ContentType: "image/jpeg", Size: 2048},
			valid: true,
		},
		{
			name:  "svg passes metadata checks",
			file:  FileInfo{Name: "logo.svg", ContentType: "image/svg+xml", Size: 512},
			valid: true,
		},
		{
			name:  "exactly minimum size",
			file:  FileInfo{Name: "a.png", ContentType: "image/png", Size: MinFileSize},
			valid: true,
		},
		{
			name:  "exactly maximum size",
			file:  FileInfo{Name: "a.png", ContentType: "image/png", Size: MaxFileSize},
			valid: true,
		},
		{
			name:   "too small wins over bad type",
			file:   FileInfo{Name: "evil.exe", ContentType: "application/x-msdownload", Size: 99},
			reason: "File is too small",
		},
		{
			name:   "too large",
			file:   FileInfo{Name: "big.png", ContentType: "image/png", Size: MaxFileSize + 1},
			reason: "File exceeds maximum size of 50MB",
		},
		{
			name:   "mime not allowed",
			file:   FileInfo{Name: "doc.png", ContentType: "application/pdf", Size: 1000},
			reason: "File type application/pdf is not allowed",
		},
		{
			name:   "extension not allowed",
			file:   FileInfo{Name: "photo.bmp", ContentType: "image/png", Size: 1000},
			reason: "File extension .bmp is not allowed",
		},
		{
			name:   "no extension",
			file:   FileInfo{Name: "photo", ContentType: "image/png", Size: 1000},
			reason: "File extension photo is not allowed",
		},
		{
			name:   "double extension uses last dot",
			file:   FileInfo{Name: "photo.png.php", ContentType: "image/png", Size: 1000},
			reason: "File extension .php is not allowed",
		},
		{
			name:   "path traversal",
			file:   FileInfo{Name: "..evil.png", ContentType: "image/png", Size: 1000},
			reason: "Filename contains suspicious characters",
		},
		{
			name:   "forward slash",
			file:   FileInfo{Name: "dir/evil.png", ContentType: "image/png", Size: 1000},
			reason: "Filename contains suspicious characters",
		},
		{
			name:   "backslash",
			file:   FileInfo{Name: `dir\evil.png`, ContentType: "image/png", Size: 1000},
			reason: "Filename contains suspicious characters",
		},
		{
			name:   "angle bracket",
			file:   FileInfo{Name: "<script>.png", ContentType: "image/png", Size: 1000},
			reason: "Filename contains suspicious characters",
		},
		{
			name:   "control code",
			file:   FileInfo{Name: "evil\r\n.png", ContentType: "image/png", Size: 1000},
			reason: "Filename contains suspicious characters",
		},
		{
			name:   "null byte",
			file:   FileInfo{Name: "evil\x00.png", ContentType: "image/png", Size: 1000},
			reason: "Filename contains suspicious characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateFile(tt.file)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestValidateFile_SizeDominatesForAnyMetadata(t *testing.T) {
	for _, ct := range []string{"image/png", "text/html", ""} {
		for _, name := range []string{"a.png", "a.txt", "../x"} {
			for _, size := range []int64{0, 1, 50, 99} {
				res := ValidateFile(FileInfo{Name: name, ContentType: ct, Size: size})
				assert.False(t, res.Valid)
				assert.Equal(t, "File is too small", res.Reason)
			}
			res := ValidateFile(FileInfo{Name: name, ContentType: ct, Size: MaxFileSize + 1024})
			assert.Equal(t, "File exceeds maximum size of 50MB", res.Reason)
		}
	}
}

func TestValidateMagicBytes(t *testing.T) {
	webp := append(append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00), []byte("WEBP")...)
	notWebp := append(append([]byte("RIFF"), 0x24, 0x00, 0x00, 0x00), []byte("XXXX")...)

	tests := []struct {
		name   string
		data   []byte
		valid  bool
		reason string
	}{
		{name: "jpeg", data: []byte{0xFF, 0xD8, 0xFF, 0xE0}, valid: true},
		{name: "png", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, valid: true},
		{name: "gif89a", data: []byte("GIF89a"), valid: true},
		{name: "gif87a", data: []byte("GIF87a"), valid: true},
		{name: "webp", data: webp, valid: true},
		{name: "riff without webp", data: notWebp, reason: "File signature does not match allowed image formats"},
		{name: "riff too short for webp", data: []byte("RIFF1234WEB"), reason: "File signature does not match allowed image formats"},
		{name: "zeros", data: make([]byte, 16), reason: "File signature does not match allowed image formats"},
		{name: "svg text", data: []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`), reason: "File signature does not match allowed image formats"},
		{name: "three bytes", data: []byte{0xFF, 0xD8, 0xFF}, reason: "File is too small to validate"},
		{name: "empty", data: nil, reason: "File is too small to validate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateMagicBytes(tt.data)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.reason, res.Reason)
		})
	}
}

func TestValidateMagicBytes_ZeroBuffers(t *testing.T) {
	for n := 4; n <= 64; n++ {
		assert.False(t, ValidateMagicBytes(bytes.Repeat([]byte{0}, n)).Valid, "length %d", n)
	}
}

func TestResultErr(t *testing.T) {
	assert.NoError(t, Result{Valid: true}.Err())

	err := ValidateMagicBytes([]byte{1, 2}).Err()
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "File is too small to validate", vErr.Reason)
}
