package storage

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// sanitizeKeySegment 压缩为小写字母、数字、横线和下划线，其余字符丢弃。
func sanitizeKeySegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + 32)
		case ch == '-', ch == '_':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if trimmed == "" {
		return "bin"
	}
	normalized := sanitizeKeySegment(trimmed)
	if normalized == "" {
		return "bin"
	}
	return normalized
}

// buildObjectKey 生成 <category>/<毫秒时间戳>-<baseName>.<ext> 形式的键。
// 时间戳前缀保证同一用户重复上传不会互相覆盖。
func buildObjectKey(category, baseName, ext string) string {
	category = sanitizeKeySegment(category)
	if category == "" {
		category = "misc"
	}
	base := sanitizeKeySegment(baseName)
	stamp := time.Now().UnixMilli()
	filename := fmt.Sprintf("%d.%s", stamp, normalizeExtension(ext))
	if base != "" {
		filename = fmt.Sprintf("%d-%s.%s", stamp, base, normalizeExtension(ext))
	}
	return path.Join(category, filename)
}

func detectContentType(ext string) string {
	typeName := mime.TypeByExtension("." + normalizeExtension(ext))
	if typeName == "" {
		return "application/octet-stream"
	}
	return typeName
}

// trimPrefix 规范化配置里的对象键前缀，去掉首尾斜杠。
func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func joinPrefix(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
