package model

import (
	"context"
	"lingo/internal/entity"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *entity.DbUser) error
	UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error
	GetUserByID(ctx context.Context, id uint) (*entity.DbUser, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.DbUser, error)
	// UserExists 检查用户名或邮箱是否已被占用，excludeID 用于更新时排除自身。
	UserExists(ctx context.Context, username, email string, excludeID uint) (bool, error)
	// IncrementGenerations 以单条 UPDATE 自增生成计数，不做跨请求并发保护。
	IncrementGenerations(ctx context.Context, id uint) error

	// 作品管理
	CreateWork(ctx context.Context, work *entity.DbWork) error
	GetWorkByID(ctx context.Context, id uint) (*entity.DbWork, error)
	ListWorks(ctx context.Context, params *entity.WorkQuery) ([]entity.DbWork, *entity.Meta, error)
	UpdateWork(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteWork(ctx context.Context, id uint) error
	IncrementWorkViews(ctx context.Context, id uint) error
	// ToggleWorkLike 点赞/取消点赞，返回切换后的状态和点赞总数。
	ToggleWorkLike(ctx context.Context, workID, userID uint) (liked bool, likesCount int64, err error)
	PopularWorks(ctx context.Context, limit int) ([]entity.DbWork, error)
}
