package upload

import (
	"bytes"
	"errors"
	"strings"
)

// MaxPhotoBytes is the default upload size cap (5 MiB), used when no cap is
// configured
const MaxPhotoBytes = 5 * 1024 * 1024

// Validation failure reasons, also used as metric labels
var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file exceeds the size limit")
	ErrBadSignature    = errors.New("file content does not match its declared type")
	ErrBadFilename     = errors.New("filename has multiple extensions")
)

// signatures maps each accepted MIME type to the magic-byte prefixes that
// identify it. A declared type outside this table is rejected outright.
var signatures = map[string][][]byte{
	"image/jpeg": {{0xFF, 0xD8, 0xFF}},
	"image/png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	"image/gif":  {[]byte("GIF87a"), []byte("GIF89a")},
	"image/webp": {[]byte("RIFF")},
}

// extensions maps accepted MIME types to the stored file extension
var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ValidateContent checks the leading bytes of data against the magic-byte
// table for the declared MIME type. This defends against MIME spoofing: a
// renamed executable fails here no matter what the upload form claims.
func ValidateContent(data []byte, declaredMIME string) bool {
	prefixes, ok := signatures[strings.ToLower(declaredMIME)]
	if !ok {
		return false
	}
	for _, prefix := range prefixes {
		if bytes.HasPrefix(data, prefix) {
			// WEBP is a RIFF container; require the WEBP fourcc as well
			if declaredMIME == "image/webp" {
				return len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP"))
			}
			return true
		}
	}
	return false
}

// ValidFilename rejects names with more than one extension segment
// (photo.jpg.exe) and names without any extension.
func ValidFilename(name string) bool {
	parts := strings.Split(name, ".")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// Extension returns the storage extension for an accepted MIME type
func Extension(declaredMIME string) (string, bool) {
	ext, ok := extensions[strings.ToLower(declaredMIME)]
	return ext, ok
}

// ValidatePhoto runs the full upload gate: allow-listed MIME type, size cap,
// single-extension filename, then magic-byte signature check. maxBytes must be
// the same cap the caller read the body under, so a body truncated at the read
// limit still fails here instead of being stored corrupt; a non-positive cap
// falls back to MaxPhotoBytes.
func ValidatePhoto(filename string, data []byte, declaredMIME string, maxBytes int64) error {
	if maxBytes <= 0 {
		maxBytes = MaxPhotoBytes
	}
	if _, ok := signatures[strings.ToLower(declaredMIME)]; !ok {
		return ErrUnsupportedType
	}
	if int64(len(data)) > maxBytes {
		return ErrTooLarge
	}
	if !ValidFilename(filename) {
		return ErrBadFilename
	}
	if !ValidateContent(data, declaredMIME) {
		return ErrBadSignature
	}
	return nil
}
