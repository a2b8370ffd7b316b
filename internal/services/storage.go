package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/lndnexus/marketplace/backend/internal/config"
	"github.com/lndnexus/marketplace/backend/pkg/logger"
)

// MaxUploadSize caps a single uploaded file.
const MaxUploadSize = 20 << 20

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/gif":       true,
	"application/pdf": true,
	"video/mp4":       true,
	"video/webm":      true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
}

// ObjectStore writes uploaded files and reports where they are served.
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	URL(key string) string
}

// S3Store stores objects in an S3-compatible bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewObjectStore returns nil when no bucket is configured.
func NewObjectStore(ctx context.Context, cfg *config.StorageConfig) (ObjectStore, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		base := strings.TrimSuffix(cfg.Endpoint, "/")
		if base == "" {
			base = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
		}
		publicURL = base + "/" + cfg.Bucket
	}

	logger.Infof("[Storage] Using bucket %s", cfg.Bucket)
	return &S3Store{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, content []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

func (s *S3Store) URL(key string) string {
	return s.publicURL + "/" + key
}

// UploadService accepts user files for portfolios, media and messages.
type UploadService struct {
	store ObjectStore
}

func NewUploadService(store ObjectStore) *UploadService {
	return &UploadService{store: store}
}

// Upload is a stored file.
type Upload struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Upload stores the file under the owner's prefix with a random name.
func (s *UploadService) Upload(ctx context.Context, ownerID, filename, contentType string, r io.Reader) (*Upload, error) {
	if s.store == nil {
		return nil, fmt.Errorf("file storage: %w", ErrNotConfigured)
	}

	content, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) == 0 {
		return nil, invalid("file", "is empty")
	}
	if len(content) > MaxUploadSize {
		return nil, invalid("file", fmt.Sprintf("must be at most %d MB", MaxUploadSize>>20))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType = uploadContentType(contentType, ext)
	if !allowedUploadTypes[contentType] {
		return nil, invalid("file", "type "+contentType+" is not allowed")
	}

	key := fmt.Sprintf("uploads/%s/%s%s", ownerID, uuid.NewString(), ext)
	pctx, cancel := providerContext(ctx)
	defer cancel()
	if err := s.store.Put(pctx, key, content, contentType); err != nil {
		logger.Error().Err(err).Str("key", key).Msg("[Storage] Upload failed")
		return nil, fmt.Errorf("%v: %w", err, ErrUpstream)
	}

	return &Upload{URL: s.store.URL(key), Key: key, ContentType: contentType, Size: len(content)}, nil
}

// uploadContentType prefers the declared type and falls back to the
// file extension.
func uploadContentType(declared, ext string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	return "application/octet-stream"
}
