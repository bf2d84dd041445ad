package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1700000000123)

type fakeS3 struct {
	got  *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.got = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func testR2Config() R2Config {
	return R2Config{
		AccountID:       "acct",
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
		BucketName:      "characters",
		PublicDomain:    "cdn.example.com",
	}
}

func newTestR2(t *testing.T, client PutObjectAPI) *R2Storage {
	t.Helper()
	s, err := NewR2Storage(context.Background(), testR2Config(), WithPutObjectClient(client), withClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return s
}

// =========================================================================
// R2
// =========================================================================

func TestR2UploadImage(t *testing.T) {
	tests := []struct {
		mime    string
		wantExt string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"image/webp", ".jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			fake := &fakeS3{}
			obj, err := newTestR2(t, fake).UploadImage(context.Background(), []byte("img"), tt.mime, CharacterImageFolder).Unwrap()
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(obj.Key, "character-images/1700000000123-"), obj.Key)
			assert.True(t, strings.HasSuffix(obj.Key, tt.wantExt), obj.Key)
			assert.Equal(t, "https://cdn.example.com/"+obj.Key, obj.URL)

			assert.Equal(t, "characters", aws.ToString(fake.got.Bucket))
			assert.Equal(t, obj.Key, aws.ToString(fake.got.Key))
			assert.Equal(t, tt.mime, aws.ToString(fake.got.ContentType))
			assert.Equal(t, types.ObjectCannedACLPublicRead, fake.got.ACL)
			assert.Equal(t, []byte("img"), fake.body)
		})
	}
}

func TestR2UploadImage_UniqueKeys(t *testing.T) {
	s := newTestR2(t, &fakeS3{})
	a, err := s.UploadImage(context.Background(), []byte("1"), "image/png", CharacterImageFolder).Unwrap()
	require.NoError(t, err)
	b, err := s.UploadImage(context.Background(), []byte("2"), "image/png", CharacterImageFolder).Unwrap()
	require.NoError(t, err)
	assert.NotEqual(t, a.Key, b.Key)
}

func TestR2UploadFile(t *testing.T) {
	fake := &fakeS3{}
	obj, err := newTestR2(t, fake).UploadFile(context.Background(), []byte("{}"), "export.json", "application/json", "exports").Unwrap()
	require.NoError(t, err)

	assert.Equal(t, "exports/export.json", obj.Key)
	assert.Equal(t, "https://cdn.example.com/exports/export.json", obj.URL)
	assert.Equal(t, "application/json", aws.ToString(fake.got.ContentType))
}

func TestR2Upload_Rejects(t *testing.T) {
	s := newTestR2(t, &fakeS3{})

	assert.ErrorIs(t, s.UploadImage(context.Background(), nil, "image/png", "x").Err(), ErrEmptyObject)
	assert.ErrorIs(t, s.UploadFile(context.Background(), []byte("a"), "../etc/passwd", "text/plain", "x").Err(), ErrInvalidKey)
	assert.ErrorIs(t, s.UploadFile(context.Background(), []byte("a"), "", "text/plain", "x").Err(), ErrInvalidKey)
}

func TestR2Upload_ProviderError(t *testing.T) {
	fake := &fakeS3{err: &smithy.GenericAPIError{Code: "AccessDenied", Message: "no write"}}

	err := newTestR2(t, fake).UploadImage(context.Background(), []byte("img"), "image/png", "x").Err()
	require.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "AccessDenied")

	fake.err = errors.New("connection reset")
	err = newTestR2(t, fake).UploadImage(context.Background(), []byte("img"), "image/png", "x").Err()
	assert.ErrorIs(t, err, ErrUploadFailed)
}

func TestR2Config_Validate(t *testing.T) {
	require.NoError(t, testR2Config().Validate())

	cfg := testR2Config()
	cfg.BucketName = ""
	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bucket name")

	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", testR2Config().Endpoint())
}

func TestNewR2Storage_TrimsPublicDomain(t *testing.T) {
	cfg := testR2Config()
	cfg.PublicDomain = "https://cdn.example.com/"
	s, err := NewR2Storage(context.Background(), cfg, WithPutObjectClient(&fakeS3{}))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com", s.baseURL)
}

// =========================================================================
// CLOUDINARY
// =========================================================================

type fakeCloudinary struct {
	params uploader.UploadParams
	res    *uploader.UploadResult
	err    error
}

func (f *fakeCloudinary) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = params
	return f.res, f.err
}

func TestCloudinaryUploadImage(t *testing.T) {
	fake := &fakeCloudinary{res: &uploader.UploadResult{
		PublicID:  "character-images/abc",
		SecureURL: "https://res.cloudinary.com/demo/image/upload/character-images/abc.png",
	}}
	s := newCloudinaryStorage(fake)
	s.now = func() time.Time { return fixedNow }

	obj, err := s.UploadImage(context.Background(), []byte("img"), "image/png", CharacterImageFolder).Unwrap()
	require.NoError(t, err)

	assert.Equal(t, "character-images/abc", obj.Key)
	assert.Equal(t, fake.res.SecureURL, obj.URL)
	assert.True(t, strings.HasPrefix(fake.params.PublicID, "character-images/1700000000123-"))
	assert.False(t, strings.HasSuffix(fake.params.PublicID, ".png"))
	assert.Equal(t, "image", fake.params.ResourceType)
}

func TestCloudinaryUpload_Failures(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCloudinary
	}{
		{"transport error", &fakeCloudinary{err: errors.New("timeout")}},
		{"nil result", &fakeCloudinary{}},
		{"missing url", &fakeCloudinary{res: &uploader.UploadResult{PublicID: "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newCloudinaryStorage(tt.fake).UploadImage(context.Background(), []byte("img"), "image/png", "x").Err()
			assert.ErrorIs(t, err, ErrUploadFailed)
		})
	}
}

func TestNewCloudinaryStorage_RequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryStorage(CloudinaryConfig{CloudName: "demo"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
