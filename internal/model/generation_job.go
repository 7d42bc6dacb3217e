package model

import (
	"time"
)

const (
	JobStatusPending   = "pending"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type GenerationJob struct {
	ID              uint64     `gorm:"primaryKey" json:"id"`
	UserID          uint64     `gorm:"not null;index:idx_user_id" json:"user_id"`
	JobKind         string     `gorm:"type:varchar(32);not null" json:"job_kind"` // text_to_image / image_to_image
	Status          string     `gorm:"type:varchar(16);not null;default:pending" json:"status"`
	CreditsConsumed int64      `gorm:"not null;default:0" json:"credits_consumed"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at"`
}

func (GenerationJob) TableName() string {
	return "generation_jobs"
}
