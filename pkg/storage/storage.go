// Package storage stores uploaded pictures (CEO and head-of-department photos)
// and returns the URL that is saved on the owning record.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orgchart-backend/pkg/config"
	"orgchart-backend/pkg/utils"
)

// ErrInvalidImage 上传内容不是可解码的图片
var ErrInvalidImage = errors.New("storage: invalid image")

// Uploader saves an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// PictureStore 负责图片规范化与上传
type PictureStore struct {
	uploader Uploader
	maxSize  int
}

// NewPictureStore wraps an uploader; pictures are squared and scaled to maxSize pixels.
func NewPictureStore(uploader Uploader, maxSize int) *PictureStore {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &PictureStore{uploader: uploader, maxSize: maxSize}
}

// SavePicture normalizes raw image bytes and uploads them under prefix/.
func (s *PictureStore) SavePicture(ctx context.Context, prefix string, raw []byte) (string, error) {
	data, err := NormalizePicture(raw, s.maxSize)
	if err != nil {
		return "", err
	}

	token, err := utils.GenerateURLToken(18)
	if err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	key := fmt.Sprintf("%s/%s.jpg", prefix, token)

	url, err := s.uploader.Upload(ctx, key, "image/jpeg", data)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return url, nil
}

// NewFromConfig 按配置选择 Supabase Storage 或本地目录
func NewFromConfig(cfg *config.Config, log *slog.Logger) (*PictureStore, error) {
	if cfg.UseSupabaseStorage() {
		log.Info("using supabase storage", "bucket", cfg.SupabaseBucket)
		return NewPictureStore(NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket), cfg.PictureMaxSize), nil
	}

	local, err := NewLocalUploader(cfg.UploadDir, cfg.PublicBaseURL+LocalURLPrefix)
	if err != nil {
		return nil, err
	}
	log.Info("using local upload directory", "dir", cfg.UploadDir)
	return NewPictureStore(local, cfg.PictureMaxSize), nil
}

// LocalDir returns the upload directory when pictures are stored locally, or "".
func (s *PictureStore) LocalDir() string {
	if local, ok := s.uploader.(*LocalUploader); ok {
		return local.Dir()
	}
	return ""
}
