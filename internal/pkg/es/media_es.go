package es

import "time"

// MediaES 写入 ES 的媒体文档，只索引公开媒体
type MediaES struct {
	ID             uint64    `json:"id"`
	UserID         uint64    `json:"user_id"`
	MediaType      string    `json:"media_type"`
	PositivePrompt string    `json:"positive_prompt"`
	NegativePrompt string    `json:"negative_prompt"`
	SdModel        string    `json:"sd_model"`
	Tags           []string  `json:"tags"`
	IsPublic       bool      `json:"is_public"`
	CreatedAt      time.Time `json:"created_at"`
}
