package dto

// MediaDTO 媒体
type MediaDTO struct {
	ID             uint64   `json:"id"`
	UserID         uint64   `json:"user_id"`
	MediaType      string   `json:"media_type"`
	FileType       string   `json:"file_type"`
	URL            string   `json:"url"` // 限时签名链接
	PositivePrompt string   `json:"positive_prompt"`
	NegativePrompt string   `json:"negative_prompt"`
	Seed           int64    `json:"seed"`
	SdModel        string   `json:"sd_model"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	IsPublic       bool     `json:"is_public"`
	ViewCount      int      `json:"view_count"`
	ThumbUpCount   int      `json:"thumb_up_count"`
	ThumbDownCount int      `json:"thumb_down_count"`
	OriginID       *uint64  `json:"origin_id,omitempty"`
	JobID          *uint64  `json:"job_id,omitempty"`
	Tags           []string `json:"tags"`
	CreatedAt      string   `json:"created_at"`
}

// ListMediaDTO 媒体列表查询
type ListMediaDTO struct {
	MediaType *string `form:"media_type" validate:"omitempty,oneof=image video"`
	IsPublic  *bool   `form:"is_public"`
	Page      int     `form:"page,default=1" validate:"min=1"`
	PageSize  int     `form:"page_size,default=20" validate:"min=1,max=100"`
}

// UpdateMediaDTO 媒体 - 修改
type UpdateMediaDTO struct {
	PositivePrompt *string  `json:"positive_prompt" validate:"omitempty,max=5000"`
	NegativePrompt *string  `json:"negative_prompt" validate:"omitempty,max=5000"`
	IsPublic       *bool    `json:"is_public"`
	Tags           []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=50"`
}

// RateMediaDTO 媒体评价
type RateMediaDTO struct {
	ThumbUp *bool `json:"thumb_up" binding:"required"`
}

// AddCommentDTO 评论 - 新增
type AddCommentDTO struct {
	Content string `json:"content" binding:"required" validate:"required,min=1,max=1000"`
}

// CommentDTO 评论
type CommentDTO struct {
	ID        uint64 `json:"id"`
	MediaID   uint64 `json:"media_id"`
	UserID    uint64 `json:"user_id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// SearchMediaDTO 公开媒体检索
type SearchMediaDTO struct {
	Query    string `form:"q" binding:"required" validate:"required,min=1,max=200"`
	Page     int    `form:"page,default=1" validate:"min=1"`
	PageSize int    `form:"page_size,default=20" validate:"min=1,max=100"`
}
