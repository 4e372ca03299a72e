package sql

import (
	"context"
	"fmt"
	"lingo/internal/entity"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 作品列表允许的排序字段白名单。
var workSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"views":     "views",
	"title":     "title",
}

// CreateWork persists a new work record.
func (r *GormRepository) CreateWork(ctx context.Context, work *entity.DbWork) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if work == nil {
		return fmt.Errorf("work is nil")
	}
	return r.db.WithContext(ctx).Create(work).Error
}

// GetWorkByID loads a work with its creator and liking users.
func (r *GormRepository) GetWorkByID(ctx context.Context, id uint) (*entity.DbWork, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, fmt.Errorf("invalid work id")
	}
	var work entity.DbWork
	if err := r.db.WithContext(ctx).Preload("Creator").Preload("Likes").First(&work, id).Error; err != nil {
		return nil, err
	}
	return &work, nil
}

// ListWorks returns paginated works.
func (r *GormRepository) ListWorks(ctx context.Context, params *entity.WorkQuery) ([]entity.DbWork, *entity.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbWork{})
	if params != nil {
		if params.PublicOnly {
			query = query.Where("is_public = ?", true)
		}
		if params.CreatorID > 0 {
			query = query.Where("creator_id = ?", params.CreatorID)
		}
		if trimmed := strings.TrimSpace(params.Style); trimmed != "" {
			query = query.Where("style = ?", trimmed)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page := 1
	pageSize := 20
	sortColumn := "created_at"
	desc := true
	if params != nil {
		if params.Page > 0 {
			page = int(params.Page)
		}
		if params.PageSize > 0 {
			pageSize = int(params.PageSize)
		}
		if column, ok := workSortColumns[strings.TrimSpace(params.SortBy)]; ok {
			sortColumn = column
		}
		if strings.EqualFold(params.Order, "asc") {
			desc = false
		}
	}

	direction := "DESC"
	if !desc {
		direction = "ASC"
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var works []entity.DbWork
	err := query.
		Preload("Creator").
		Preload("Likes").
		Order(fmt.Sprintf("%s %s", sortColumn, direction)).
		Offset(offset).
		Limit(pageSize).
		Find(&works).Error
	if err != nil {
		return nil, nil, err
	}

	meta := r.calculatePagination(total, page, pageSize)
	return works, meta, nil
}

// UpdateWork updates an existing work entry. GORM refreshes updated_at on every update.
func (r *GormRepository) UpdateWork(ctx context.Context, id uint, updates map[string]interface{}) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid work id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entity.DbWork{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteWork removes a work and its like associations.
func (r *GormRepository) DeleteWork(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid work id")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM work_like WHERE work_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&entity.DbWork{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IncrementWorkViews 浏览作品时自增浏览计数（读路径的副作用）。
func (r *GormRepository) IncrementWorkViews(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return fmt.Errorf("invalid work id")
	}
	return r.db.WithContext(ctx).Model(&entity.DbWork{}).Where("id = ?", id).
		Updates(map[string]interface{}{"views": gorm.Expr("views + ?", 1)}).Error
}

// ToggleWorkLike 以成员检查实现点赞切换：已点赞则删除，未点赞则插入。
func (r *GormRepository) ToggleWorkLike(ctx context.Context, workID, userID uint) (bool, int64, error) {
	if r == nil || r.db == nil {
		return false, 0, fmt.Errorf("repository not initialised")
	}
	if workID == 0 || userID == 0 {
		return false, 0, fmt.Errorf("invalid work or user id")
	}

	liked := false
	var likesCount int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var work entity.DbWork
		if err := tx.Select("id").First(&work, workID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Table("work_like").
			Where("work_id = ? AND user_id = ?", workID, userID).
			Count(&existing).Error; err != nil {
			return err
		}

		if existing > 0 {
			if err := tx.Exec("DELETE FROM work_like WHERE work_id = ? AND user_id = ?", workID, userID).Error; err != nil {
				return err
			}
			liked = false
		} else {
			if err := tx.Exec("INSERT INTO work_like (work_id, user_id) VALUES (?, ?)", workID, userID).Error; err != nil {
				return err
			}
			liked = true
		}

		if err := tx.Table("work_like").Where("work_id = ?", workID).Count(&likesCount).Error; err != nil {
			return err
		}

		// 点赞属于作品的一次变更，刷新 updated_at
		return tx.Model(&entity.DbWork{}).Where("id = ?", workID).
			UpdateColumn("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, likesCount, nil
}

// PopularWorks 返回按点赞数、浏览量排序的公开作品。
func (r *GormRepository) PopularWorks(ctx context.Context, limit int) ([]entity.DbWork, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if limit <= 0 {
		limit = 10
	}

	var works []entity.DbWork
	err := r.db.WithContext(ctx).
		Model(&entity.DbWork{}).
		Where("is_public = ?", true).
		Preload("Creator").
		Preload("Likes").
		Order("(SELECT COUNT(*) FROM work_like WHERE work_like.work_id = works.id) DESC").
		Order("views DESC").
		Limit(limit).
		Find(&works).Error
	if err != nil {
		return nil, err
	}
	return works, nil
}
