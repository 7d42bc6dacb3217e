package repository

import (
	"Atelier/internal/model"
	"context"

	"gorm.io/gorm"
)

type CommentRepo interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, mediaID uint64, page, pageSize int) ([]*model.Comment, int64, error)
	DeleteComment(ctx context.Context, id uint64, userID uint64) (int64, error)
}

type CommentRepoImpl struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) CommentRepo {
	return &CommentRepoImpl{db: db}
}

func (s *CommentRepoImpl) CreateComment(ctx context.Context, comment *model.Comment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

func (s *CommentRepoImpl) ListComments(ctx context.Context, mediaID uint64, page, pageSize int) ([]*model.Comment, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("media_id = ? AND is_deleted = 0", mediaID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	comments := make([]*model.Comment, 0)
	result := query.
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&comments)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return comments, total, nil
}

// DeleteComment 软删除，只允许本人删除
func (s *CommentRepoImpl) DeleteComment(ctx context.Context, id uint64, userID uint64) (int64, error) {
	result := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_deleted", true)
	return result.RowsAffected, result.Error
}
