package validation

import (
	"fmt"
	"net/http"
)

// ImageConstraints defines what a webhook screenshot may be
type ImageConstraints struct {
	AllowedMimeTypes map[string]bool
	MaxSize          int
}

var ScreenshotConstraints = ImageConstraints{
	AllowedMimeTypes: map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	},
	MaxSize: 5 << 20, // 5MB
}

// ValidateImage checks decoded image bytes and returns the detected type.
// The type comes from the content (magic numbers), not from what the
// sender claims.
func ValidateImage(data []byte, constraints ImageConstraints) (string, error) {
	if len(data) == 0 {
		return "", &FieldError{Field: "screenshot", Message: "screenshot is empty"}
	}

	if len(data) > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return "", &FieldError{Field: "screenshot", Message: fmt.Sprintf("screenshot too large: maximum size is %d MB", maxMB)}
	}

	detectedType := http.DetectContentType(data)
	if !constraints.AllowedMimeTypes[detectedType] {
		return "", &FieldError{Field: "screenshot", Message: fmt.Sprintf("invalid screenshot type (detected: %s)", detectedType)}
	}

	return detectedType, nil
}
