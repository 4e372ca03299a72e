package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage 把上传文件写到本地磁盘，目录直接由 HTTP 静态路由对外服务。
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage 创建本地存储，目录不存在时自动创建。
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "datas/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// LocalBaseDir 返回存储根目录。
func (s *LocalStorage) LocalBaseDir() string {
	return s.baseDir
}

// Save 落盘并返回相对键，键可拼在公共基础 URL 后面。
func (s *LocalStorage) Save(ctx context.Context, data []byte, opts SaveOptions) (string, error) {
	if err := ensurePayload(ctx, data); err != nil {
		return "", err
	}

	key := buildObjectKey(opts.Category, opts.BaseName, opts.Extension)

	absPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return key, nil
}

var _ Storage = (*LocalStorage)(nil)
var _ LocalBaseDirProvider = (*LocalStorage)(nil)
