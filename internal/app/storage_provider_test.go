package app

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		src  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode}, StorageProviderBootstrapErrorInvalidMode},
		{"missing bucket", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingBucket}, StorageProviderBootstrapErrorMissingBucket},
		{"missing emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost}, StorageProviderBootstrapErrorMissingEmulatorHost},
		{"invalid emulator host", &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost}, StorageProviderBootstrapErrorInvalidEmulatorHost},
		{"connect failed", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS}, tc.src)
			var got *StorageProviderBootstrapError
			require.True(t, errors.As(err, &got))
			assert.Equal(t, tc.want, got.Code)
			assert.ErrorIs(t, err, tc.src)
		})
	}
}

type fakeBucket struct{}

func (fakeBucket) UploadFile(dbctx.Context, gcp.BucketCategory, string, string, io.Reader) error {
	return nil
}
func (fakeBucket) DeleteFile(dbctx.Context, gcp.BucketCategory, string) error { return nil }
func (fakeBucket) GetPublicURL(c gcp.BucketCategory, key string) string {
	return "https://cdn.test/" + string(c) + "/" + key
}
func (fakeBucket) Close() error { return nil }

func stubBucketFactory(t *testing.T, fn func(*logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error)) {
	t.Helper()
	prev := newBucketServiceWithConfig
	newBucketServiceWithConfig = fn
	t.Cleanup(func() { newBucketServiceWithConfig = prev })
}

func TestResolveBucketServiceDisabledByDefault(t *testing.T) {
	stubBucketFactory(t, func(*logger.Logger, gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		t.Fatal("factory must not be called when storage is disabled")
		return nil, nil
	})
	bucket, err := resolveBucketService(logger.Nop(), Config{})
	require.NoError(t, err)
	assert.Nil(t, bucket)
}

func TestResolveBucketServiceInfersMode(t *testing.T) {
	var seen gcp.ObjectStorageConfig
	stubBucketFactory(t, func(_ *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		seen = cfg
		return fakeBucket{}, nil
	})

	bucket, err := resolveBucketService(logger.Nop(), Config{MediaBucketName: "shop-media"})
	require.NoError(t, err)
	require.NotNil(t, bucket)
	assert.Equal(t, gcp.ObjectStorageModeGCS, seen.Mode)
	assert.True(t, seen.Inferred)

	_, err = resolveBucketService(logger.Nop(), Config{MediaBucketName: "shop-media", StorageEmulatorHost: "http://fake-gcs:4443"})
	require.NoError(t, err)
	assert.Equal(t, gcp.ObjectStorageModeGCSEmulator, seen.Mode)
}

func TestResolveBucketServiceRejectsUnknownMode(t *testing.T) {
	_, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "s3"})
	var got *StorageProviderBootstrapError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, StorageProviderBootstrapErrorInvalidMode, got.Code)
}

func TestResolveBucketServiceClassifiesFactoryErrors(t *testing.T) {
	stubBucketFactory(t, func(_ *logger.Logger, cfg gcp.ObjectStorageConfig) (gcp.BucketService, error) {
		return nil, gcp.ValidateObjectStorageConfig(cfg)
	})
	_, err := resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "gcs_emulator", MediaBucketName: "m"})
	assert.Equal(t, StorageProviderBootstrapErrorMissingEmulatorHost, storageProviderBootstrapErrorCode(err))

	_, err = resolveBucketService(logger.Nop(), Config{ObjectStorageMode: "gcs"})
	assert.Equal(t, StorageProviderBootstrapErrorMissingBucket, storageProviderBootstrapErrorCode(err))
}
