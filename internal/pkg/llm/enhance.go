package llm

import (
	"Atelier/internal/api/config"
	"context"
	log "log/slog"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

func readPrompt(file string) string {
	data, err := os.ReadFile(file)
	if err != nil {
		log.Error("读取prompt文件失败", "err", err)
		return ""
	}
	return string(data)
}

func fetchModel(ctx context.Context, systemPrompt string, userPrompt string, temp float64) (*llms.ContentResponse, error) {
	if err := TextSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer TextSem.Release(1)
	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(systemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
			},
		},
	}
	log.Info("正在请求AI大模型")
	return llmClient.GenerateContent(ctx, messages,
		llms.WithModel(config.Cfg.LLM.TextModel),
		llms.WithTemperature(temp),
	)
}

// EnhancePrompt 对用户提示词做一次润色。任何失败都退回原始提示词，
// 提示词增强永远不能阻断生成。
func EnhancePrompt(ctx context.Context, prompt string) string {
	if llmClient == nil || enhancePrompt == "" {
		return prompt
	}

	resp, err := fetchModel(ctx, enhancePrompt, prompt, 0.7)
	if err != nil {
		log.WarnContext(ctx, "提示词增强失败，使用原始提示词", "err", err)
		return prompt
	}
	if len(resp.Choices) == 0 {
		return prompt
	}

	enhanced := strings.TrimSpace(resp.Choices[0].Content)
	if enhanced == "" {
		return prompt
	}
	return enhanced
}
