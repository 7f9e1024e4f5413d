package ingest

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_uploader.go -package=mocks docchat/internal/ingest Uploader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Uploader stores original documents in object storage and returns the
// storage URI used as the snippet source in the index.
type Uploader interface {
	Upload(ctx context.Context, key string, content []byte) (string, error)
}

// S3Options configures the object storage client. Endpoint is optional and
// supports S3-compatible servers (MinIO and friends).
type S3Options struct {
	Bucket   string
	Region   string
	Endpoint string
	KeyID    string
	Secret   string
}

// S3Uploader uploads documents to an S3 bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader creates an S3 uploader from explicit options. Static
// credentials are used when provided, otherwise the default chain applies.
func NewS3Uploader(ctx context.Context, opts S3Options) (*S3Uploader, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.KeyID != "" && opts.Secret != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.KeyID, opts.Secret, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{client: client, bucket: opts.Bucket}, nil
}

// Upload puts the document under key and returns its s3:// URI.
func (u *S3Uploader) Upload(ctx context.Context, key string, content []byte) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
