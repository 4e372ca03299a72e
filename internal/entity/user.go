package entity

import "time"

const (
	UserTypeCreator    = "creator"
	UserTypeEnthusiast = "enthusiast"

	SubscriptionFree         = "free"
	SubscriptionPremium      = "premium"
	SubscriptionProfessional = "professional"

	// DefaultAvatarURL 新用户的占位头像。
	DefaultAvatarURL = "https://randomuser.me/api/portraits/lego/1.jpg"

	// FreeTierGenerationLimit 免费用户每月生成次数上限。
	FreeTierGenerationLimit = 50
)

// Usage 记录用户的资源消耗。lastReset 字段目前没有任何重置逻辑调用它。
type Usage struct {
	Generations int64     `gorm:"column:generations;not null;default:0" json:"generations"`
	Storage     int64     `gorm:"column:storage;not null;default:0" json:"storage"`
	LastReset   time.Time `gorm:"column:last_reset" json:"lastReset"`
}

// DbUser represents a persisted user account.
type DbUser struct {
	ID           uint        `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"-"`
	Username     string      `gorm:"column:username;type:varchar(255);uniqueIndex;not null" json:"username"`
	Email        string      `gorm:"column:email;type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	Bio          string      `gorm:"column:bio;type:text" json:"bio"`
	Specialties  StringArray `gorm:"column:specialties;type:text" json:"specialties"`
	Avatar       string      `gorm:"column:avatar;type:varchar(512)" json:"avatar"`
	UserType     string      `gorm:"column:user_type;type:varchar(50);not null;default:creator" json:"userType"`
	Subscription string      `gorm:"column:subscription;type:varchar(50);index;not null;default:free" json:"subscription"`
	Usage        Usage       `gorm:"embedded;embeddedPrefix:usage_" json:"usage"`
	LastLogin    *time.Time  `gorm:"column:last_login" json:"lastLogin,omitempty"`
}

// TableName overrides default pluralised name.
func (DbUser) TableName() string {
	return "users"
}

// IsFreeTier 判断用户是否为免费订阅。
func (u *DbUser) IsFreeTier() bool {
	return u == nil || u.Subscription == "" || u.Subscription == SubscriptionFree
}

// RemainingGenerations 计算剩余生成次数，非免费用户返回较大的固定值。
func (u *DbUser) RemainingGenerations() int64 {
	if !u.IsFreeTier() {
		return 999
	}
	remaining := FreeTierGenerationLimit - u.Usage.Generations
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ValidSubscription 检查订阅类型是否合法。
func ValidSubscription(value string) bool {
	switch value {
	case SubscriptionFree, SubscriptionPremium, SubscriptionProfessional:
		return true
	default:
		return false
	}
}

// UserSummary is a lightweight user description returned to clients.
type UserSummary struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Avatar       string `json:"avatar"`
	UserType     string `json:"userType"`
	Subscription string `json:"subscription"`
}

// UserProfile 是 verify/me 接口返回的完整用户视图。
type UserProfile struct {
	UserSummary
	Bio         string      `json:"bio"`
	Specialties StringArray `json:"specialties"`
	Usage       *Usage      `json:"usage,omitempty"`
	CreatedAt   *time.Time  `json:"createdAt,omitempty"`
	LastLogin   *time.Time  `json:"lastLogin,omitempty"`
}

type AuthRegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	UserType string `json:"userType"`
}

type AuthLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthPayload 登录/注册成功后返回的令牌和用户信息。
type AuthPayload struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type UserUpdateRequest struct {
	Username    *string      `json:"username,omitempty"`
	Avatar      *string      `json:"avatar,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	Specialties *StringArray `json:"specialties,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type SubscriptionUpdateRequest struct {
	Subscription string `json:"subscription" binding:"required"`
}
