package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Uploader handles wardrobe image uploads to AWS S3
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Bucket string `json:"bucket"`
	Region string `json:"region"`
	Size   int64  `json:"size"`
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// UploadItemImage uploads an isolated garment image.
// Keys are organized as items/{year}/{month}/{userID}/{fileID}.png
func (u *S3Uploader) UploadItemImage(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error) {
	fileID := uuid.New().String()
	extension := filepath.Ext(originalFilename)
	if extension == "" {
		extension = ".png"
	}

	now := time.Now()
	key := fmt.Sprintf("items/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, fileID, extension)

	return u.putObject(ctx, key, imageData, extension, map[string]string{
		"user-id":           userID,
		"original-filename": originalFilename,
		"upload-timestamp":  now.Format(time.RFC3339),
		"file-type":         "item-image",
	})
}

// UploadSourcePhoto uploads the original wardrobe photo the user took
func (u *S3Uploader) UploadSourcePhoto(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error) {
	fileID := uuid.New().String()
	extension := filepath.Ext(originalFilename)
	if extension == "" {
		extension = ".jpg"
	}

	now := time.Now()
	key := fmt.Sprintf("sources/%d/%02d/%s/%s%s",
		now.Year(), now.Month(), userID, fileID, extension)

	return u.putObject(ctx, key, imageData, extension, map[string]string{
		"user-id":          userID,
		"upload-timestamp": now.Format(time.RFC3339),
		"file-type":        "source-photo",
	})
}

// UploadTryOnRender uploads a composite try-on image keyed by its cache key,
// so regenerating the same selection overwrites the previous object.
func (u *S3Uploader) UploadTryOnRender(ctx context.Context, imageData []byte, userID, cacheKey string) (*UploadResult, error) {
	key := fmt.Sprintf("tryon/%s/%s.png", userID, cacheKey)

	return u.putObject(ctx, key, imageData, ".png", map[string]string{
		"user-id":   userID,
		"cache-key": cacheKey,
		"file-type": "tryon-render",
	})
}

// UploadAvatar uploads a user profile avatar
func (u *S3Uploader) UploadAvatar(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error) {
	extension := filepath.Ext(originalFilename)
	if extension == "" {
		extension = ".jpg"
	}
	key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.New().String(), extension)

	return u.putObject(ctx, key, imageData, extension, map[string]string{
		"user-id":   userID,
		"file-type": "avatar",
	})
}

func (u *S3Uploader) putObject(ctx context.Context, key string, data []byte, extension string, metadata map[string]string) (*UploadResult, error) {
	putObjectInput := &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(getContentType(extension)),

		// Garment images are immutable once generated; renders are
		// addressed by cache key so a day of CDN caching is safe.
		CacheControl: aws.String("max-age=86400"),

		Metadata: metadata,

		// Note: no ACL - bucket policy handles public read access
	}

	_, err := u.client.PutObject(ctx, putObjectInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("%s/%s", strings.TrimSuffix(u.baseURL, "/"), key)

	return &UploadResult{
		Key:    key,
		URL:    publicURL,
		Bucket: u.bucket,
		Region: u.region,
		Size:   int64(len(data)),
	}, nil
}

// DownloadFile fetches an object's bytes from S3. Used to pull isolated
// garment images back down before compositing a try-on render.
func (u *S3Uploader) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	out, err := u.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}

	return nil
}

// getContentType returns the appropriate MIME type for file extensions
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	case ".gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
