// Package upload is the client-side validation gate for file uploads.
// It mirrors the server's acceptance policy so bad files are rejected
// locally, with a specific reason, before any network call is made.
package upload

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Size limits in bytes.
const (
	MaxImageSize = 5 << 20  // 5 MiB
	MaxVideoSize = 50 << 20 // 50 MiB
)

// ValidationError is a local rejection with a user-facing reason. It is
// never the result of a network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func reject(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

var imageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// File signature magic numbers, checked against the declared MIME type.
// JPEG's signature is three bytes; the rest are four.
var imageMagic = map[string][]byte{
	"image/jpeg": {0xFF, 0xD8, 0xFF},
	"image/png":  {0x89, 0x50, 0x4E, 0x47},
	"image/gif":  {0x47, 0x49, 0x46, 0x38},
	"image/webp": {0x52, 0x49, 0x46, 0x46},
}

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".webm": {},
}

// ValidateImage checks an image file against the upload policy:
// extension, MIME type, size limit and file signature. It returns a
// ValidationError naming the failed check, or nil.
func ValidateImage(filename, contentType string, data []byte) error {
	if len(data) == 0 {
		return reject("file %q is empty", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := imageExtensions[ext]; !ok {
		return reject("image type %q is not allowed; use jpg, jpeg, png, gif or webp", ext)
	}

	mime := normalizeMIME(contentType)
	if _, ok := imageMIMETypes[mime]; !ok {
		return reject("MIME type %q is not an allowed image type", contentType)
	}

	if len(data) > MaxImageSize {
		return reject("image is %d bytes, over the %d MiB limit", len(data), MaxImageSize>>20)
	}

	magic := imageMagic[mime]
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic) {
		return reject("file content does not match declared type %q", contentType)
	}

	return nil
}

// ValidateVideo checks a video file: extension, video/* MIME type and
// size limit. Video containers have no fixed-offset signature shared
// across brands, so no magic check is applied.
func ValidateVideo(filename, contentType string, data []byte) error {
	if len(data) == 0 {
		return reject("file %q is empty", filename)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := videoExtensions[ext]; !ok {
		return reject("video type %q is not allowed; use mp4 or webm", ext)
	}

	if !strings.HasPrefix(normalizeMIME(contentType), "video/") {
		return reject("MIME type %q is not a video type", contentType)
	}

	if len(data) > MaxVideoSize {
		return reject("video is %d bytes, over the %d MiB limit", len(data), MaxVideoSize>>20)
	}

	return nil
}

// normalizeMIME lowercases and strips any parameters, e.g.
// "image/PNG; charset=binary" -> "image/png".
func normalizeMIME(contentType string) string {
	mime, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mime))
}
