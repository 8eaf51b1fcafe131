package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".jpg", "image/jpeg"},
		{".JPG", "image/jpeg"},
		{".jpeg", "image/jpeg"},
		{".png", "image/png"},
		{".PNG", "image/png"},
		{".webp", "image/webp"},
		{".heic", "image/heic"},
		{".gif", "image/gif"},
		{".unknown", "application/octet-stream"},
		{"", "application/octet-stream"},
		{".bmp", "application/octet-stream"}, // Not supported
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			result := getContentType(tt.extension)
			assert.Equal(t, tt.expected, result)
		})
	}
}
