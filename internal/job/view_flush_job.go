package job

import (
	"Atelier/internal/pkg/consts"
	"Atelier/internal/pkg/logger"
	"Atelier/internal/pkg/redis"
	"Atelier/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// ViewFlushJob 把 Redis 暂存的浏览量批量回写数据库。
// 加分布式锁防止多实例同时回写。
type ViewFlushJob struct {
	mediaSvc service.MediaService
}

func NewViewFlushJob(mediaSvc service.MediaService) *ViewFlushJob {
	return &ViewFlushJob{
		mediaSvc: mediaSvc,
	}
}

func (s *ViewFlushJob) Run() {
	traceID := "job-view-flush-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	lockValue := uuid.NewString()
	locked, err := redis.TryLock(ctx, consts.ViewFlushLock, lockValue, time.Minute*5, 1)
	if err != nil {
		log.ErrorContext(ctx, "view flush lock error", "err", err)
		return
	}
	if !locked {
		return
	}
	defer redis.UnLock(ctx, consts.ViewFlushLock, lockValue)

	if err = s.mediaSvc.FlushViewCounts(ctx); err != nil {
		log.ErrorContext(ctx, "flush view counts error", "err", err)
		return
	}
	log.InfoContext(ctx, "ViewFlushJob finished")
}
