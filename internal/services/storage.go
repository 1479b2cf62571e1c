package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"iark_app/internal/config"
)

var ErrUploadFailed = errors.New("upload failed")

// MaxUploadSize caps admin image uploads
const MaxUploadSize = 5 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ObjectStorage stores admin uploads in an S3 bucket and hands back their public URL
type ObjectStorage struct {
	client     putObjectAPI
	bucket     string
	region     string
	publicBase string
}

// NewObjectStorage returns nil when no bucket is configured
func NewObjectStorage(ctx context.Context, cfg config.StorageConfig) (*ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.WithFields(log.Fields{"bucket": cfg.Bucket, "region": cfg.Region}).Info("Object storage enabled")
	return &ObjectStorage{
		client:     s3.NewFromConfig(awsCfg),
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		publicBase: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload stores body under folder with a generated name and returns its public URL
func (s *ObjectStorage) Upload(ctx context.Context, folder, contentType string, size int64, body io.Reader) (string, error) {
	if s == nil {
		return "", fmt.Errorf("%w: storage not configured", ErrUploadFailed)
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", ErrUploadFailed, contentType)
	}
	if size > MaxUploadSize {
		return "", fmt.Errorf("%w: file larger than %d bytes", ErrUploadFailed, MaxUploadSize)
	}

	key := path.Join(folder, fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().Unix(), ext))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	return s.PublicURL(key), nil
}

// PublicURL is the address browsers use to fetch key
func (s *ObjectStorage) PublicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
