package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/sakif/character-studio/internal/result"
)

// CloudinaryAPI is the subset of *uploader.API used here.
type CloudinaryAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type CloudinaryStorage struct {
	api CloudinaryAPI
	now func() time.Time
}

func NewCloudinaryStorage(cfg CloudinaryConfig) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("%w: cloudinary credentials not set", ErrInvalidConfig)
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing cloudinary: %v", ErrInvalidConfig, err)
	}
	return newCloudinaryStorage(&cld.Upload), nil
}

func newCloudinaryStorage(api CloudinaryAPI) *CloudinaryStorage {
	return &CloudinaryStorage{api: api, now: time.Now}
}

func (s *CloudinaryStorage) UploadImage(ctx context.Context, data []byte, mimeType, folder string) result.Result[Object] {
	if len(data) == 0 {
		return result.Err[Object](ErrEmptyObject)
	}
	// Cloudinary appends its own extension, so the public id drops ours.
	key := imageKey(folder, mimeType, s.now())
	key = strings.TrimSuffix(key, "."+imageExtension(mimeType))
	return s.upload(ctx, data, key, "image")
}

func (s *CloudinaryStorage) UploadFile(ctx context.Context, data []byte, fileName, _ string, folder string) result.Result[Object] {
	if err := validateFileName(fileName); err != nil {
		return result.Err[Object](err)
	}
	if len(data) == 0 {
		return result.Err[Object](ErrEmptyObject)
	}
	return s.upload(ctx, data, joinKey(folder, fileName), "auto")
}

func (s *CloudinaryStorage) upload(ctx context.Context, data []byte, publicID, resourceType string) result.Result[Object] {
	res, err := s.api.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return result.Err[Object](fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	if res == nil || res.SecureURL == "" {
		msg := "no secure url in response"
		if res != nil && res.Error.Message != "" {
			msg = res.Error.Message
		}
		return result.Err[Object](fmt.Errorf("%w: %s", ErrUploadFailed, msg))
	}

	key := res.PublicID
	if key == "" {
		key = publicID
	}
	return result.Ok(Object{Key: key, URL: res.SecureURL})
}
