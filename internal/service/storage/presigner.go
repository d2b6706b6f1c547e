// Package storage hands out presigned URLs for the app's media files. The
// server never proxies file bytes; devices upload and download straight to
// the S3-compatible store, so the only state here is the client config.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"moment/internal/config"
	"moment/internal/domain"
)

const (
	uploadExpiry   = 15 * time.Minute
	downloadExpiry = time.Hour
)

// categories are the allowed second path segments under a user's prefix.
var categories = map[string]bool{
	"audio":  true,
	"images": true,
	"files":  true,
}

// Presigner issues presigned PUT and GET URLs scoped to one user's prefix.
type Presigner struct {
	client *s3.PresignClient
	bucket string
	logger *slog.Logger
}

// PresignedURL is the response for both upload and download requests.
type PresignedURL struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewPresigner builds the S3 presign client from static credentials. A
// non-empty endpoint points at MinIO or Supabase Storage instead of AWS.
func NewPresigner(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Presigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Presigner{
		client: s3.NewPresignClient(client),
		bucket: cfg.S3Bucket,
		logger: logger,
	}, nil
}

// BuildKey validates the category and filename and returns the object key
// under the user's prefix. Filenames with path separators are rejected so a
// client cannot presign its way out of its own prefix.
func BuildKey(userID, category, filename string) (string, error) {
	if !categories[category] {
		return "", fmt.Errorf("%w: unknown file category %q", domain.ErrValidation, category)
	}
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", fmt.Errorf("%w: invalid filename %q", domain.ErrValidation, filename)
	}
	return fmt.Sprintf("users/%s/%s/%s", userID, category, filename), nil
}

// PresignUpload returns a presigned PUT URL for the given file.
func (p *Presigner) PresignUpload(ctx context.Context, userID, category, filename, contentType string) (*PresignedURL, error) {
	key, err := BuildKey(userID, category, filename)
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket: &p.bucket,
		Key:    &key,
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	req, err := p.client.PresignPutObject(ctx, input, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload: %v", domain.ErrUnavailable, err)
	}

	p.logger.Debug("presigned upload", "user_id", userID, "key", key)
	return &PresignedURL{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(uploadExpiry),
	}, nil
}

// PresignDownload returns a presigned GET URL for an object the user owns.
// The key must sit under the caller's prefix; any other key is reported as
// not found rather than forbidden, to avoid confirming it exists.
func (p *Presigner) PresignDownload(ctx context.Context, userID, key string) (*PresignedURL, error) {
	if !strings.HasPrefix(key, "users/"+userID+"/") || strings.Contains(key, "..") {
		return nil, fmt.Errorf("%w: file %s", domain.ErrNotFound, key)
	}

	req, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &p.bucket,
		Key:    &key,
	}, s3.WithPresignExpires(downloadExpiry))
	if err != nil {
		return nil, fmt.Errorf("%w: presign download: %v", domain.ErrUnavailable, err)
	}

	return &PresignedURL{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(downloadExpiry),
	}, nil
}
