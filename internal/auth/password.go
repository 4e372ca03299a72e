package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength 与用户模型上的密码长度约束保持一致。
const MinPasswordLength = 8

// HashPassword 对明文密码进行哈希处理。存储的密码值发生变化的地方
// （注册、修改密码）都必须经过这里。
func HashPassword(password string) (string, error) {
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		return "", errors.New("password must not be empty")
	}
	if len(trimmed) < MinPasswordLength {
		return "", errors.New("password is too short")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(trimmed), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword 验证候选密码是否与存储的哈希值匹配。
func ComparePassword(hash, candidate string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("stored password hash is empty")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate))
}
