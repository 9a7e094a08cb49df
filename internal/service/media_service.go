package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

var allowedMediaTypes = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpg": {}, "png": {}, "gif": {}, "webp": {},
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, data []byte) (string, error)
}

type mediaService struct {
	store ObjectUploader
}

func NewMediaService(store ObjectUploader) MediaService {
	return &mediaService{store: store}
}

// Upload sniffs data, stores it under a random key and returns the public URL
// to use in a post's media list.
func (s *mediaService) Upload(ctx context.Context, userID int64, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrUnsupportedMedia)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return "", ErrUnsupportedMedia
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	key := fmt.Sprintf("%d/%s.%s", userID, id, kind.Extension)

	if err := s.store.UploadObject(ctx, key, data, kind.MIME.Value); err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}

	return s.store.PublicURL(key), nil
}
