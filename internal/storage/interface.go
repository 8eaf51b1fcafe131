package storage

import "context"

// ImageUploader defines the upload operations the handlers and pipeline
// depend on. This interface allows for easy mocking in tests.
type ImageUploader interface {
	UploadItemImage(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error)
	UploadSourcePhoto(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error)
	UploadTryOnRender(ctx context.Context, imageData []byte, userID, cacheKey string) (*UploadResult, error)
	UploadAvatar(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)
