package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
	"github.com/yungbote/shopfront-backend/internal/platform/apierr"
	"github.com/yungbote/shopfront-backend/internal/platform/gcp"
	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

const MaxUploadBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type MediaService interface {
	// Upload stores an image and returns its public URL.
	Upload(ctx context.Context, category gcp.BucketCategory, filename string, r io.Reader) (string, error)
	Enabled() bool
}

type mediaService struct {
	log   *logger.Logger
	store ObjectStore
}

// NewMediaService accepts a nil store; uploads then fail with 503.
func NewMediaService(log *logger.Logger, store ObjectStore) MediaService {
	return &mediaService{log: log.With("service", "MediaService"), store: store}
}

func (ms *mediaService) Enabled() bool { return ms.store != nil }

func (ms *mediaService) Upload(ctx context.Context, category gcp.BucketCategory, filename string, r io.Reader) (string, error) {
	if ms.store == nil {
		return "", unavailable("media_unavailable", "media storage is not configured")
	}
	if !gcp.IsValidCategory(category) {
		return "", invalidArg("invalid_category", "unknown media category %q", category)
	}
	if r == nil {
		return "", invalidArg("missing_file", "file is required")
	}

	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		return "", invalidArg("empty_file", "file is empty")
	}
	if len(raw) > MaxUploadBytes {
		return "", apierr.New(http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Errorf("file exceeds %d bytes: %w", MaxUploadBytes, ErrInvalidArgument))
	}

	contentType := http.DetectContentType(raw)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", invalidArg("unsupported_media_type", "only jpeg, png, gif and webp images are accepted (got %s)", contentType)
	}

	key := objectName(filename, ext)
	if err := ms.store.UploadFile(dbctx.New(ctx), category, key, contentType, bytes.NewReader(raw)); err != nil {
		ms.log.Error("Upload failed", "category", category, "key", key, "error", err)
		return "", fmt.Errorf("upload %s/%s: %w", category, key, err)
	}
	return ms.store.GetPublicURL(category, key), nil
}

// objectName keeps a readable stem from the client filename behind a random
// prefix so names never collide.
func objectName(filename, ext string) string {
	stem := strings.TrimSuffix(path.Base(strings.ReplaceAll(filename, "\\", "/")), path.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(stem) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
		if b.Len() >= 40 {
			break
		}
	}
	name := uuid.NewString()
	if s := strings.Trim(b.String(), "-"); s != "" {
		name += "-" + s
	}
	return name + ext
}
