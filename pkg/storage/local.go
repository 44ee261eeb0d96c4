package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalURLPrefix 本地上传目录对外的路由前缀
const LocalURLPrefix = "/uploads/"

// LocalUploader 写入本地目录，由 HTTP 服务器在 /uploads/ 下提供
type LocalUploader struct {
	dir     string
	baseURL string
}

// NewLocalUploader creates dir if needed.
func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalUploader{dir: dir, baseURL: baseURL}, nil
}

// Dir 返回上传目录
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload 写文件并返回访问地址
func (u *LocalUploader) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(u.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return u.baseURL + strings.TrimPrefix(filepath.ToSlash(clean), "/"), nil
}
