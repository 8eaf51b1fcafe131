package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidImageFile(t *testing.T) {
	testCases := []struct {
		filename string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.png", true},
		{"photo.webp", true},
		{"photo.heic", true},
		{"photo.JPG", true}, // Case insensitive
		{"photo.PNG", true},
		{"photo.gif", false},
		{"photo.mp3", false},
		{"photo.exe", false},
		{"", false},
		{"noextension", false},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			result := IsValidImageFile(tc.filename)
			assert.Equal(t, tc.expected, result, "Expected %v for %s", tc.expected, tc.filename)
		})
	}
}

func TestImageMIMEType(t *testing.T) {
	testCases := []struct {
		filename string
		expected string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.jpeg", "image/jpeg"},
		{"a.PNG", "image/png"},
		{"a.webp", "image/webp"},
		{"a.heic", "image/heic"},
		{"a.txt", "application/octet-stream"},
	}

	for _, tc := range testCases {
		t.Run(tc.filename, func(t *testing.T) {
			assert.Equal(t, tc.expected, ImageMIMEType(tc.filename))
		})
	}
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename(""))
	assert.NoError(t, ValidateFilename("summer dress.jpg"))
	assert.Error(t, ValidateFilename("../etc/passwd"))
	assert.Error(t, ValidateFilename("a/b.jpg"))
	assert.Error(t, ValidateFilename("a\\b.jpg"))

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	assert.Error(t, ValidateFilename(string(long)))
}

func TestParseInt(t *testing.T) {
	testCases := []struct {
		input        string
		defaultValue int
		expected     int
	}{
		{"123", 0, 123},
		{"", 100, 100},
		{"invalid", 50, 50},
		{"-10", 0, -10},
		{"0", 100, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := ParseInt(tc.input, tc.defaultValue)
			assert.Equal(t, tc.expected, result)
		})
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit(0, 100))
	assert.Equal(t, 20, ClampLimit(-5, 100))
	assert.Equal(t, 50, ClampLimit(50, 100))
	assert.Equal(t, 100, ClampLimit(500, 100))
}
