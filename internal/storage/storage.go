package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lingo/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
)

// SaveOptions 控制后端如何持久化上传文件。
//
// Category 对应 URL 中的一级目录（如 avatars），BaseName 通常是上传者的
// 用户 ID，Extension 不含前导点。
type SaveOptions struct {
	Category  string
	BaseName  string
	Extension string
}

// Storage 持久化二进制数据并返回相对键，键可直接拼到公共 URL 后面。
type Storage interface {
	Save(ctx context.Context, data []byte, opts SaveOptions) (string, error)
}

// LocalBaseDirProvider 由可以通过 HTTP 静态目录直接对外服务的后端实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据配置实例化存储后端，未配置时回落到本地磁盘。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// ensurePayload 是各后端 Save 共用的入口检查。
func ensurePayload(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
