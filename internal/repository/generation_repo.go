package repository

import (
	"Atelier/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

type GenerationRepo interface {
	FinalizeRun(ctx context.Context, job *model.GenerationJob, input *model.Media, outputs []*model.Media, txn *model.CreditTransaction) error
	GetJobById(ctx context.Context, id uint64) (*model.GenerationJob, error)
	ListJobsByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*model.GenerationJob, int64, error)
	TrimJobs(ctx context.Context, keep int) error
}

type GenerationRepoImpl struct {
	db *gorm.DB
}

func NewGenerationRepo(db *gorm.DB) GenerationRepo {
	return &GenerationRepoImpl{db: db}
}

// FinalizeRun 一次生成的全部落库动作在同一个事务里完成：
// 任务记录、输入媒体（图生图）、每个实际收到的产物一行媒体、
// 条件扣减余额、一条负数流水。任何一步失败整体回滚。
func (s *GenerationRepoImpl) FinalizeRun(ctx context.Context, job *model.GenerationJob, input *model.Media, outputs []*model.Media, txn *model.CreditTransaction) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(job); result.Error != nil {
			return result.Error
		}

		if input != nil {
			input.JobID = &job.ID
			if result := tx.Create(input); result.Error != nil {
				return result.Error
			}
		}

		for _, media := range outputs {
			media.JobID = &job.ID
			if input != nil {
				media.OriginID = &input.ID
			}
			if result := tx.Create(media); result.Error != nil {
				return result.Error
			}
		}

		if err := DebitBalance(tx, job.UserID, job.CreditsConsumed); err != nil {
			return err
		}

		txn.UserID = job.UserID
		return tx.Create(txn).Error
	})
}

func (s *GenerationRepoImpl) GetJobById(ctx context.Context, id uint64) (*model.GenerationJob, error) {
	job := &model.GenerationJob{}
	result := s.db.WithContext(ctx).First(job, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return job, nil
}

func (s *GenerationRepoImpl) ListJobsByUser(ctx context.Context, userID uint64, page, pageSize int) ([]*model.GenerationJob, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.GenerationJob{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	jobs := make([]*model.GenerationJob, 0)
	result := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return jobs, total, nil
}

// TrimJobs 每个用户只保留最近 keep 条任务记录
func (s *GenerationRepoImpl) TrimJobs(ctx context.Context, keep int) error {
	return s.db.WithContext(ctx).Exec(`
		DELETE j FROM generation_jobs j
		JOIN (
			SELECT user_id, MIN(id) AS min_keep FROM (
				SELECT user_id, id,
					ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY id DESC) AS rn
				FROM generation_jobs
			) ranked
			WHERE rn <= ?
			GROUP BY user_id
		) keepset ON j.user_id = keepset.user_id
		WHERE j.id < keepset.min_keep`, keep).Error
}
