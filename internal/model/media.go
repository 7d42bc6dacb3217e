package model

import (
	"time"
)

type Media struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	UserID         uint64    `gorm:"not null;index:idx_user_id" json:"user_id"`
	MediaType      string    `gorm:"type:varchar(16);not null" json:"media_type"` // image / video
	FileType       string    `gorm:"type:varchar(16);not null" json:"file_type"`  // png, jpeg, mp4...
	ObjectKey      string    `gorm:"type:varchar(512);not null" json:"-"`
	PositivePrompt string    `gorm:"type:text" json:"positive_prompt"`
	NegativePrompt string    `gorm:"type:text" json:"negative_prompt"`
	Seed           int64     `gorm:"not null;default:0" json:"seed"`
	SdModel        string    `gorm:"type:varchar(128)" json:"sd_model"`
	Width          int       `gorm:"not null;default:0" json:"width"`
	Height         int       `gorm:"not null;default:0" json:"height"`
	IsPublic       bool      `gorm:"type:tinyint(1);not null;default:0" json:"is_public"`
	ViewCount      int       `gorm:"not null;default:0" json:"view_count"`
	ThumbUpCount   int       `gorm:"not null;default:0" json:"thumb_up_count"`
	ThumbDownCount int       `gorm:"not null;default:0" json:"thumb_down_count"`
	OriginID       *uint64   `gorm:"index:idx_origin_id" json:"origin_id"` // 图生图的来源媒体，弱引用
	JobID          *uint64   `gorm:"index:idx_job_id" json:"job_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// 关联关系
	Tags []Tag `gorm:"many2many:media_tags;" json:"tags"`
}

func (Media) TableName() string {
	return "media"
}
