package imagehash

import "fmt"

// MaxImageBytes is the pre-flight size ceiling for image inputs.
const MaxImageBytes = 50 << 20 // 50 MB

// allowedMIMETypes is the image decode allow-list.
var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// Validation is the pre-flight check result. Rejections are expected,
// frequent conditions, so they are returned as data rather than errors.
type Validation struct {
	Valid  bool
	Reason string
}

// ValidateImageFile rejects non-image MIME types and oversized files before
// any decoding is attempted. This is distinct from the decode-failure
// ErrImageLoad, which only corrupt or unsupported data can trigger.
func ValidateImageFile(mimeType string, sizeBytes int64) Validation {
	if !allowedMIMETypes[mimeType] {
		return Validation{Reason: fmt.Sprintf("unsupported MIME type %q", mimeType)}
	}
	if sizeBytes > MaxImageBytes {
		return Validation{Reason: fmt.Sprintf("file size %d exceeds %d byte ceiling", sizeBytes, MaxImageBytes)}
	}
	return Validation{Valid: true}
}
