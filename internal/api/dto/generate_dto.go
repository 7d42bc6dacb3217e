package dto

// GenerateTextDTO 文生图请求
type GenerateTextDTO struct {
	PositivePrompt string `json:"positive_prompt" binding:"required" validate:"required,min=1,max=5000"`
	NegativePrompt string `json:"negative_prompt" validate:"omitempty,max=5000"`
	NumOutputs     int    `json:"num_outputs" validate:"omitempty,min=1,max=4"`
	Enhance        bool   `json:"enhance"`
}

// GenerateMediaDTO 图生图请求，输入图片为 base64
type GenerateMediaDTO struct {
	PositivePrompt string `json:"positive_prompt" binding:"required" validate:"required,min=1,max=5000"`
	NegativePrompt string `json:"negative_prompt" validate:"omitempty,max=5000"`
	NumOutputs     int    `json:"num_outputs" validate:"omitempty,min=1,max=4"`
	InputImage     string `json:"input_image" binding:"required" validate:"required"`
	Enhance        bool   `json:"enhance"`
}

// EnqueueResultDTO 入队结果
type EnqueueResultDTO struct {
	TaskID string `json:"task_id"`
}

// TaskStatusDTO 任务状态轮询结果
type TaskStatusDTO struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// GenerationResultDTO 生成完成后的结果
type GenerationResultDTO struct {
	JobID           uint64      `json:"job_id"`
	CreditsConsumed int64       `json:"credits_consumed"`
	Media           []*MediaDTO `json:"media"`
}
