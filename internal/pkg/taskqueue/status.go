package taskqueue

import (
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/redis"
	"context"
	"time"

	"github.com/goccy/go-json"
)

// 任务状态
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// 结果在 Redis 中保留 24 小时，之后由调用方通过任务历史接口查询
const statusTTL = 24 * time.Hour

// TaskStatus 轮询接口返回的任务状态
type TaskStatus struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusStore Redis 任务状态存储
type StatusStore struct{}

func NewStatusStore() *StatusStore {
	return &StatusStore{}
}

func (s *StatusStore) set(ctx context.Context, taskID string, status *TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.TaskStatusKey+taskID, data, statusTTL)
}

func (s *StatusStore) MarkPending(ctx context.Context, taskID string) error {
	return s.set(ctx, taskID, &TaskStatus{Status: StatusPending})
}

func (s *StatusStore) MarkProcessing(ctx context.Context, taskID string) error {
	return s.set(ctx, taskID, &TaskStatus{Status: StatusProcessing})
}

func (s *StatusStore) MarkCompleted(ctx context.Context, taskID string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.set(ctx, taskID, &TaskStatus{Status: StatusCompleted, Result: data})
}

func (s *StatusStore) MarkFailed(ctx context.Context, taskID string, errText string) error {
	return s.set(ctx, taskID, &TaskStatus{Status: StatusFailed, Error: errText})
}

// Get 查询任务状态，不存在返回 nil
func (s *StatusStore) Get(ctx context.Context, taskID string) (*TaskStatus, error) {
	raw, err := redis.GetValue(ctx, consts.TaskStatusKey+taskID)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var status TaskStatus
	if err = json.Unmarshal([]byte(raw), &status); err != nil {
		return nil, err
	}
	return &status, nil
}
