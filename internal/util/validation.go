package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxPhotoSize is the largest upload the API accepts (15MB covers modern
// phone camera output without letting clients post raw DSLR files).
const MaxPhotoSize = 15 * 1024 * 1024

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".heic"}

// IsValidImageFile reports whether filename has a supported image extension
func IsValidImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, validExt := range imageExtensions {
		if ext == validExt {
			return true
		}
	}
	return false
}

// ImageMIMEType maps a filename to the MIME type sent to the vision model
func ImageMIMEType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "application/octet-stream"
	}
}

// ValidateFilename rejects path traversal and over-long display filenames.
// Empty is allowed; callers fall back to the upload's original name.
func ValidateFilename(filename string) error {
	if filename == "" {
		return nil
	}
	if len(filename) > 255 {
		return fmt.Errorf("filename too long (max 255 characters)")
	}
	if strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return fmt.Errorf("filename contains invalid characters")
	}
	return nil
}
