package services

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/platform/apierr"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func TestMediaUploadStoresImage(t *testing.T) {
	store := newMemStore()
	svc := NewMediaService(logger.Nop(), store)
	require.True(t, svc.Enabled())

	url, err := svc.Upload(t.Context(), gcp.BucketCategoryProduct, "My Phone.Front.PNG", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.test/product/"), url)
	assert.True(t, strings.HasSuffix(url, "-my-phone-front.png"), url)

	keys := store.keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "image/png", store.types[keys[0]])
	assert.Equal(t, pngBytes, store.objects[keys[0]])
}

func TestMediaUploadRejections(t *testing.T) {
	svc := NewMediaService(logger.Nop(), newMemStore())

	_, err := svc.Upload(t.Context(), "video", "a.png", bytes.NewReader(pngBytes))
	requireCode(t, err, "invalid_category")

	_, err = svc.Upload(t.Context(), gcp.BucketCategoryBanner, "a.png", nil)
	requireCode(t, err, "missing_file")

	_, err = svc.Upload(t.Context(), gcp.BucketCategoryBanner, "a.png", bytes.NewReader(nil))
	requireCode(t, err, "empty_file")

	_, err = svc.Upload(t.Context(), gcp.BucketCategoryBanner, "notes.txt", strings.NewReader("plain text, not an image"))
	requireCode(t, err, "unsupported_media_type")

	big := append(append([]byte{}, pngBytes...), make([]byte, MaxUploadBytes)...)
	_, err = svc.Upload(t.Context(), gcp.BucketCategoryBanner, "big.png", bytes.NewReader(big))
	requireCode(t, err, "file_too_large")
	ae, _ := apierr.As(err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, ae.Status)
}

func TestMediaUploadWithoutStore(t *testing.T) {
	svc := NewMediaService(logger.Nop(), nil)
	assert.False(t, svc.Enabled())

	_, err := svc.Upload(t.Context(), gcp.BucketCategoryAvatar, "a.png", bytes.NewReader(pngBytes))
	requireCode(t, err, "media_unavailable")
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestMediaUploadStoreFailure(t *testing.T) {
	store := newMemStore()
	store.fail = errors.New("bucket gone")
	svc := NewMediaService(logger.Nop(), store)

	_, err := svc.Upload(t.Context(), gcp.BucketCategoryAvatar, "a.png", bytes.NewReader(pngBytes))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestObjectNameSanitizes(t *testing.T) {
	name := objectName(`C:\Users\me\Ảnh Đẹp!!.jpeg`, ".jpg")
	assert.True(t, strings.HasSuffix(name, ".jpg"), name)
	assert.NotContains(t, name, `\`)
	assert.NotContains(t, name, " ")
	assert.NotContains(t, name, "!")

	bare := objectName("", ".png")
	assert.Len(t, bare, 36+len(".png"))
}
