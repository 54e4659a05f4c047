package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"aqimonitor/internal/pkg/logx"
)

// photoKeyPrefix namespaces photo objects inside the bucket.
const photoKeyPrefix = "profile-photos/"

// s3Store keeps photos in an S3-compatible bucket and serves them from a public base URL.
type s3Store struct {
	bucket   string
	baseURL  string
	client   *s3.Client
	uploader *manager.Uploader
}

func newS3Store(ctx context.Context, cfg Config) (*s3Store, error) {
	if cfg.S3BucketName == "" || cfg.S3PublicBaseURL == "" {
		return nil, errors.New("storage: s3 bucket and public base url are required")
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: load s3 config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = true
	})

	return &s3Store{
		bucket:   cfg.S3BucketName,
		baseURL:  strings.TrimSuffix(cfg.S3PublicBaseURL, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (s *s3Store) Save(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	if !safeName(filename) {
		return "", fmt.Errorf("storage: invalid filename %q", filename)
	}

	key := photoKeyPrefix + filename
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		logx.Error(err, "S3 upload failed", "key", key)
		return "", fmt.Errorf("storage: upload %s: %w", key, err)
	}

	return s.urlFor(key), nil
}

func (s *s3Store) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFor(url)
	if !ok {
		return ErrNotOwned
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logx.Error(err, "S3 delete failed", "key", key)
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

func (s *s3Store) OwnsURL(url string) bool {
	_, ok := s.keyFor(url)
	return ok
}

func (s *s3Store) urlFor(key string) string {
	return s.baseURL + "/" + key
}

func (s *s3Store) keyFor(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok {
		return "", false
	}
	name, ok := strings.CutPrefix(key, photoKeyPrefix)
	if !ok || !safeName(name) {
		return "", false
	}
	return key, true
}
