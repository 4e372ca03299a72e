package api

import (
	"fmt"
	"strings"
)

// publicURL 把存储键拼成客户端可访问的 URL，已经是完整 URL 的原样返回。
func (h *HTTPHandler) publicURL(key string) string {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	base := h.storagePublicBase
	if base == "" {
		base = "/uploads"
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(base, "/"), strings.TrimLeft(trimmed, "/"))
}
