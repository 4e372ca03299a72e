package sql

import (
	"context"
	"fmt"
	"lingo/internal/entity"
	"strings"

	"gorm.io/gorm"
)

// CreateUser persists a new user record.
func (r *GormRepository) CreateUser(ctx context.Context, user *entity.DbUser) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// UpdateUser updates an existing user entry.
func (r *GormRepository) UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid user id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("id = ?", id).Updates(updates).Error
}

// GetUserByID loads a user by ID.
func (r *GormRepository) GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	var user entity.DbUser
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail loads a user by email.
func (r *GormRepository) GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return nil, fmt.Errorf("email is empty")
	}

	var user entity.DbUser
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(trimmed)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists 检查用户名或邮箱是否已被其他用户占用。
func (r *GormRepository) UserExists(ctx context.Context, username, email string, excludeID uint) (bool, error) {
	if r == nil || r.db == nil {
		return false, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbUser{})

	conditions := r.db.Session(&gorm.Session{NewDB: true}).Model(&entity.DbUser{})
	hasCondition := false
	if trimmed := strings.TrimSpace(username); trimmed != "" {
		conditions = conditions.Where("username = ?", trimmed)
		hasCondition = true
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		clause := r.db.Session(&gorm.Session{NewDB: true}).Where("LOWER(email) = ?", strings.ToLower(trimmed))
		if hasCondition {
			conditions = conditions.Or(clause)
		} else {
			conditions = conditions.Where(clause)
		}
		hasCondition = true
	}
	if !hasCondition {
		return false, nil
	}

	query = query.Where(conditions)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementGenerations 单条语句自增生成计数。
func (r *GormRepository) IncrementGenerations(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid user id")
	}
	result := r.db.WithContext(ctx).Model(&entity.DbUser{}).Where("id = ?", id).
		UpdateColumn("usage_generations", gorm.Expr("usage_generations + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
