package upload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func jpegBytes() []byte  { return []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10} }
func pngBytes() []byte   { return []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00} }
func exeBytes() []byte   { return []byte{0x4D, 0x5A, 0x90, 0x00} } // MZ header
func webpBytes() []byte  { return append([]byte("RIFF\x24\x00\x00\x00WEBP"), 0x56) }
func riffOnly() []byte   { return []byte("RIFF\x24\x00\x00\x00WAVE") }

func TestValidateContent(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		mime     string
		expected bool
	}{
		{
			name:     "jpeg signature",
			data:     jpegBytes(),
			mime:     "image/jpeg",
			expected: true,
		},
		{
			name:     "png signature",
			data:     pngBytes(),
			mime:     "image/png",
			expected: true,
		},
		{
			name:     "gif87a signature",
			data:     []byte("GIF87a...."),
			mime:     "image/gif",
			expected: true,
		},
		{
			name:     "gif89a signature",
			data:     []byte("GIF89a...."),
			mime:     "image/gif",
			expected: true,
		},
		{
			name:     "webp signature",
			data:     webpBytes(),
			mime:     "image/webp",
			expected: true,
		},
		{
			name:     "riff container that is not webp",
			data:     riffOnly(),
			mime:     "image/webp",
			expected: false,
		},
		{
			name:     "executable declared as jpeg",
			data:     exeBytes(),
			mime:     "image/jpeg",
			expected: false,
		},
		{
			name:     "jpeg bytes declared as png",
			data:     jpegBytes(),
			mime:     "image/png",
			expected: false,
		},
		{
			name:     "unsupported declared type",
			data:     jpegBytes(),
			mime:     "image/svg+xml",
			expected: false,
		},
		{
			name:     "empty buffer",
			data:     nil,
			mime:     "image/jpeg",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, ValidateContent(tt.data, tt.mime))
		})
	}
}

func TestValidFilename(t *testing.T) {
	require.True(t, ValidFilename("photo.jpg"))
	require.True(t, ValidFilename("maria-silva.png"))
	require.False(t, ValidFilename("photo.jpg.exe"))
	require.False(t, ValidFilename("photo"))
	require.False(t, ValidFilename(".jpg"))
	require.False(t, ValidFilename("photo."))
	require.False(t, ValidFilename("a.b.c.d"))
}

func TestValidatePhoto(t *testing.T) {
	require.NoError(t, ValidatePhoto("photo.jpg", jpegBytes(), "image/jpeg", MaxPhotoBytes))

	// content wins over filename: renamed executable fails on signature
	err := ValidatePhoto("photo.jpg", exeBytes(), "image/jpeg", MaxPhotoBytes)
	require.ErrorIs(t, err, ErrBadSignature)

	// double extension is rejected before content is inspected
	err = ValidatePhoto("photo.jpg.exe", jpegBytes(), "image/jpeg", MaxPhotoBytes)
	require.ErrorIs(t, err, ErrBadFilename)

	// disallowed MIME type
	err = ValidatePhoto("doc.pdf", []byte("%PDF-1.7"), "application/pdf", MaxPhotoBytes)
	require.ErrorIs(t, err, ErrUnsupportedType)

	// oversized upload against the default cap
	big := bytes.Repeat([]byte{0xFF}, MaxPhotoBytes+1)
	copy(big, jpegBytes())
	err = ValidatePhoto("photo.jpg", big, "image/jpeg", MaxPhotoBytes)
	require.ErrorIs(t, err, ErrTooLarge)

	// non-positive cap falls back to the default
	require.NoError(t, ValidatePhoto("photo.jpg", jpegBytes(), "image/jpeg", 0))
}

func TestValidatePhotoConfiguredCap(t *testing.T) {
	// A body read under a configured cap is truncated at cap+1 bytes; the
	// validator must reject it under the same cap rather than accepting a
	// corrupt photo against the default limit
	const maxBytes = int64(1024)
	truncated := bytes.Repeat([]byte{0xFF}, int(maxBytes)+1)
	copy(truncated, jpegBytes())

	err := ValidatePhoto("photo.jpg", truncated, "image/jpeg", maxBytes)
	require.ErrorIs(t, err, ErrTooLarge)

	// At or under the cap passes
	small := make([]byte, maxBytes)
	copy(small, jpegBytes())
	require.NoError(t, ValidatePhoto("photo.jpg", small, "image/jpeg", maxBytes))
}

func TestExtension(t *testing.T) {
	ext, ok := Extension("image/jpeg")
	require.True(t, ok)
	require.Equal(t, "jpg", ext)

	_, ok = Extension("application/pdf")
	require.False(t, ok)
}
