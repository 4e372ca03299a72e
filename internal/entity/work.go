package entity

import "time"

const (
	WorkStyleTraditional = "traditional"
	WorkStyleModern      = "modern"
	WorkStyleInk         = "ink"
	WorkStyleMinimalist  = "minimalist"
	WorkStyleAbstract    = "abstract"
	WorkStyleOther       = "other"

	WorkTypeGeneration      = "generation"
	WorkTypeCulturalProduct = "cultural_product"
)

// DbWork represents a persisted artwork record.
type DbWork struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	Title       string      `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Description string      `gorm:"column:description;type:text" json:"description"`
	CreatorID   uint        `gorm:"column:creator_id;index;not null" json:"creatorId"`
	Creator     *DbUser     `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	ImageURL    string      `gorm:"column:image_url;type:varchar(1024);not null" json:"imageUrl"`
	Style       string      `gorm:"column:style;type:varchar(50);index;default:traditional" json:"style"`
	Model       string      `gorm:"column:model;type:varchar(100);default:default" json:"model"`
	Parameters  JSONMap     `gorm:"column:parameters;type:text" json:"parameters"`
	Tags        StringArray `gorm:"column:tags;type:text" json:"tags"`
	Type        string      `gorm:"column:type;type:varchar(50);default:generation" json:"type"`
	IsPublic    bool        `gorm:"column:is_public;index;not null;default:false" json:"isPublic"`
	Views       int64       `gorm:"column:views;not null;default:0" json:"views"`

	// Likes 是点赞用户的引用集合，不承载所有权语义。
	Likes []DbUser `gorm:"many2many:work_like;joinForeignKey:WorkID;joinReferences:UserID" json:"-"`
}

// TableName overrides default pluralised name.
func (DbWork) TableName() string {
	return "works"
}

// LikesCount 派生自点赞集合，从不落库。
func (w *DbWork) LikesCount() int {
	if w == nil {
		return 0
	}
	return len(w.Likes)
}

// LikedBy 检查给定用户是否已点赞。
func (w *DbWork) LikedBy(userID uint) bool {
	if w == nil || userID == 0 {
		return false
	}
	for _, u := range w.Likes {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// WorkView 是返回给客户端的作品视图，点赞数在此展开。
type WorkView struct {
	ID          uint         `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Creator     *UserSummary `json:"creator,omitempty"`
	ImageURL    string       `json:"imageUrl"`
	Style       string       `json:"style"`
	Model       string       `json:"model"`
	Parameters  JSONMap      `json:"parameters"`
	Tags        StringArray  `json:"tags"`
	Type        string       `json:"type"`
	IsPublic    bool         `json:"isPublic"`
	Views       int64        `json:"views"`
	LikesCount  int          `json:"likesCount"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// WorkQuery supports listing works with pagination.
type WorkQuery struct {
	BaseParams
	Style     string `json:"style" form:"style"`
	CreatorID uint   `json:"-" form:"-"`
	// PublicOnly 为 true 时只返回公开作品。
	PublicOnly bool `json:"-" form:"-"`
}

type WorkUpdateRequest struct {
	Title       *string      `json:"title,omitempty"`
	Description *string      `json:"description,omitempty"`
	Tags        *StringArray `json:"tags,omitempty"`
	IsPublic    *bool        `json:"isPublic,omitempty"`
}

// WorkListPayload 是分页作品列表的响应体。
type WorkListPayload struct {
	Works      []WorkView `json:"works"`
	Pagination *Meta      `json:"pagination"`
}
