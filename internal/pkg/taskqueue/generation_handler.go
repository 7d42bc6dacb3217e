package taskqueue

import (
	"Atelier/internal/pkg/consts"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// GenerationRunner 由编排服务实现，失败时返回的错误会原样写进任务状态
type GenerationRunner interface {
	Run(ctx context.Context, taskID string, payload GenerationPayload) (any, error)
}

// GenerationHandler 消费生成任务。一次只处理一条消息，整个生成周期
// 阻塞在这里。任务失败只记录状态，不做任何自动重试，由用户带新种子重新提交。
type GenerationHandler struct {
	runner GenerationRunner
	status *StatusStore
}

func NewGenerationHandler(runner GenerationRunner, status *StatusStore) *GenerationHandler {
	return &GenerationHandler{runner: runner, status: status}
}

func (s *GenerationHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("generation consumer setup")
	return nil
}

func (s *GenerationHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("generation consumer cleanup")
	return nil
}

func (s *GenerationHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		s.handle(session.Context(), msg)
		// 无论成败都前移位移，失败任务不重投
		session.MarkMessage(msg, "")
		session.Commit()
	}
	return nil
}

func (s *GenerationHandler) handle(ctx context.Context, msg *sarama.ConsumerMessage) {
	var task Task
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		log.ErrorContext(ctx, "任务消息解析失败", "err", err)
		return
	}

	if task.Name != consts.TaskGenerateMedia {
		log.WarnContext(ctx, "未知任务类型，丢弃", "task_id", task.ID, "name", task.Name)
		return
	}

	var payload GenerationPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		log.ErrorContext(ctx, "任务负载解析失败", "task_id", task.ID, "err", err)
		_ = s.status.MarkFailed(ctx, task.ID, "任务负载解析失败")
		return
	}

	if err := s.status.MarkProcessing(ctx, task.ID); err != nil {
		log.WarnContext(ctx, "任务状态更新失败", "task_id", task.ID, "err", err)
	}

	result, err := s.runner.Run(ctx, task.ID, payload)
	if err != nil {
		log.ErrorContext(ctx, "生成任务失败", "task_id", task.ID, "err", err)
		if err = s.status.MarkFailed(ctx, task.ID, err.Error()); err != nil {
			log.ErrorContext(ctx, "任务失败状态写入失败", "task_id", task.ID, "err", err)
		}
		return
	}

	if err = s.status.MarkCompleted(ctx, task.ID, result); err != nil {
		log.ErrorContext(ctx, "任务完成状态写入失败", "task_id", task.ID, "err", err)
	}
	log.InfoContext(ctx, "生成任务完成", "task_id", task.ID)
}
