package repository

import (
	"Atelier/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// MediaFilter 列表查询条件，nil 表示不过滤
type MediaFilter struct {
	MediaType *string
	IsPublic  *bool
}

type MediaRepo interface {
	CreateMedia(ctx context.Context, media *model.Media) error
	GetMediaById(ctx context.Context, id uint64) (*model.Media, error)
	ListMediaByUser(ctx context.Context, userID uint64, filter MediaFilter, page, pageSize int) ([]*model.Media, int64, error)
	UpdateMedia(ctx context.Context, media *model.Media) error
	ReplaceTags(ctx context.Context, media *model.Media, tags []*model.Tag) error
	DeleteMedia(ctx context.Context, id uint64) error
	Rate(ctx context.Context, id uint64, thumbUp bool) error
	AddViewCounts(ctx context.Context, counts map[uint64]int64) error
}

type MediaRepoImpl struct {
	db *gorm.DB
}

func NewMediaRepo(db *gorm.DB) MediaRepo {
	return &MediaRepoImpl{db: db}
}

func (s *MediaRepoImpl) CreateMedia(ctx context.Context, media *model.Media) error {
	return s.db.WithContext(ctx).Create(media).Error
}

func (s *MediaRepoImpl) GetMediaById(ctx context.Context, id uint64) (*model.Media, error) {
	media := &model.Media{}
	result := s.db.WithContext(ctx).
		Preload("Tags").
		First(media, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return media, nil
}

func (s *MediaRepoImpl) ListMediaByUser(ctx context.Context, userID uint64, filter MediaFilter, page, pageSize int) ([]*model.Media, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Media{}).Where("user_id = ?", userID)
	if filter.MediaType != nil {
		query = query.Where("media_type = ?", *filter.MediaType)
	}
	if filter.IsPublic != nil {
		query = query.Where("is_public = ?", *filter.IsPublic)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := make([]*model.Media, 0)
	result := query.
		Preload("Tags").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&items)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return items, total, nil
}

func (s *MediaRepoImpl) UpdateMedia(ctx context.Context, media *model.Media) error {
	fields := []string{"positive_prompt", "negative_prompt", "is_public"}
	result := s.db.WithContext(ctx).Model(&model.Media{}).
		Where("id = ?", media.ID).
		Select(fields).
		Updates(media)
	return result.Error
}

func (s *MediaRepoImpl) ReplaceTags(ctx context.Context, media *model.Media, tags []*model.Tag) error {
	return s.db.WithContext(ctx).Model(media).Association("Tags").Replace(tags)
}

func (s *MediaRepoImpl) DeleteMedia(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		media := model.Media{ID: id}
		if err := tx.Model(&media).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("media_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Media{}, id).Error
	})
}

func (s *MediaRepoImpl) Rate(ctx context.Context, id uint64, thumbUp bool) error {
	column := "thumb_down_count"
	if thumbUp {
		column = "thumb_up_count"
	}

	result := s.db.WithContext(ctx).Model(&model.Media{}).
		Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddViewCounts 批量回写 Redis 暂存的浏览量
func (s *MediaRepoImpl) AddViewCounts(ctx context.Context, counts map[uint64]int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, delta := range counts {
			if delta <= 0 {
				continue
			}
			result := tx.Model(&model.Media{}).
				Where("id = ?", id).
				Update("view_count", gorm.Expr("view_count + ?", delta))
			if result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}
