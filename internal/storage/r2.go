package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/sakif/character-studio/internal/result"
)

// PutObjectAPI is the one S3 call R2 uploads need.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// PublicDomain is the host serving the bucket publicly, e.g. "cdn.example.com".
	PublicDomain string
}

func (c R2Config) Validate() error {
	var missing []string
	for name, v := range map[string]string{
		"account id":        c.AccountID,
		"access key id":     c.AccessKeyID,
		"secret access key": c.SecretAccessKey,
		"bucket name":       c.BucketName,
		"public domain":     c.PublicDomain,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: R2 %s not set", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// Endpoint is the account's S3-compatible API endpoint.
func (c R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

type R2Storage struct {
	client  PutObjectAPI
	bucket  string
	baseURL string
	now     func() time.Time
	timeout time.Duration
}

type R2Option func(*R2Storage)

// WithPutObjectClient replaces the S3 client, for tests.
func WithPutObjectClient(c PutObjectAPI) R2Option {
	return func(s *R2Storage) { s.client = c }
}

// WithUploadTimeout bounds each PutObject call.
func WithUploadTimeout(d time.Duration) R2Option {
	return func(s *R2Storage) { s.timeout = d }
}

func withClock(now func() time.Time) R2Option {
	return func(s *R2Storage) { s.now = now }
}

// NewR2Storage builds an S3 client pointed at Cloudflare R2.
// R2 ignores regions, but the SDK requires one; "auto" is what R2 documents.
func NewR2Storage(ctx context.Context, cfg R2Config, opts ...R2Option) (*R2Storage, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &R2Storage{
		bucket:  cfg.BucketName,
		baseURL: "https://" + strings.TrimSuffix(strings.TrimPrefix(cfg.PublicDomain, "https://"), "/"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		awsCfg, err := config.LoadDefaultConfig(ctx,
			config.WithRegion("auto"),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, "",
			)),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: loading AWS config: %v", ErrInvalidConfig, err)
		}
		s.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint())
		})
	}
	return s, nil
}

func (s *R2Storage) UploadImage(ctx context.Context, data []byte, mimeType, folder string) result.Result[Object] {
	if len(data) == 0 {
		return result.Err[Object](ErrEmptyObject)
	}
	key := imageKey(folder, mimeType, s.now())
	return s.put(ctx, key, data, mimeType)
}

func (s *R2Storage) UploadFile(ctx context.Context, data []byte, fileName, contentType, folder string) result.Result[Object] {
	if err := validateFileName(fileName); err != nil {
		return result.Err[Object](err)
	}
	if len(data) == 0 {
		return result.Err[Object](ErrEmptyObject)
	}
	return s.put(ctx, joinKey(folder, fileName), data, contentType)
}

func (s *R2Storage) put(ctx context.Context, key string, data []byte, contentType string) result.Result[Object] {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return result.Err[Object](classifyPutError(err))
	}

	return result.Ok(Object{Key: key, URL: s.baseURL + "/" + key})
}

func classifyPutError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w (code: %s): %s", ErrUploadFailed, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("%w: %v", ErrUploadFailed, err)
}
