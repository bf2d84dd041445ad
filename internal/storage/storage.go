// Package storage uploads generated images to public object storage.
//
// R2 (through the S3 API) is the primary provider; Cloudinary is accepted as
// an alternative. Both return a publicly reachable URL for the stored object.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/character-studio/internal/result"
)

// CharacterImageFolder holds every generated character image.
const CharacterImageFolder = "character-images"

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")
	ErrEmptyObject   = errors.New("storage: object is empty")
	ErrInvalidKey    = errors.New("storage: invalid object key")
	ErrUploadFailed  = errors.New("storage: upload failed")
)

// Object is one stored blob and where it can be fetched from.
type Object struct {
	Key string
	URL string
}

// Uploader stores bytes and returns a public URL.
type Uploader interface {
	// UploadImage stores an image under a generated key inside folder.
	UploadImage(ctx context.Context, data []byte, mimeType, folder string) result.Result[Object]
	// UploadFile stores data under folder/fileName exactly.
	UploadFile(ctx context.Context, data []byte, fileName, contentType, folder string) result.Result[Object]
}

// imageExtension follows the stored MIME type; anything that is not PNG is
// written with a .jpg extension.
func imageExtension(mimeType string) string {
	if strings.Contains(strings.ToLower(mimeType), "png") {
		return "png"
	}
	return "jpg"
}

// imageKey builds "{folder}/{unix millis}-{random}.{ext}".
func imageKey(folder, mimeType string, now time.Time) string {
	name := fmt.Sprintf("%d-%s.%s", now.UnixMilli(), xid.New().String(), imageExtension(mimeType))
	return joinKey(folder, name)
}

func joinKey(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

func validateFileName(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return nil
}
