package taskqueue

import (
	"github.com/goccy/go-json"
)

// Task 投递到 broker 的消息信封
type Task struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// GenerationPayload 一次生成任务的全部入参
type GenerationPayload struct {
	UserID         uint64 `json:"user_id"`
	JobKind        string `json:"job_kind"`
	PositivePrompt string `json:"positive_prompt"`
	NegativePrompt string `json:"negative_prompt"`
	NumOutputs     int    `json:"num_outputs"`
	InputImage     string `json:"input_image,omitempty"` // base64，仅图生图
	Enhance        bool   `json:"enhance"`
}
