package job

import (
	"Atelier/internal/api/config"
	"Atelier/internal/pkg/logger"
	"Atelier/internal/repository"
	"context"
	log "log/slog"

	"github.com/google/uuid"
)

// HistoryTrimJob 控制每个用户的历史规模：只保留最近 N 条任务记录和积分流水
type HistoryTrimJob struct {
	creditRepo     repository.CreditRepo
	generationRepo repository.GenerationRepo
}

func NewHistoryTrimJob(creditRepo repository.CreditRepo, generationRepo repository.GenerationRepo) *HistoryTrimJob {
	return &HistoryTrimJob{
		creditRepo:     creditRepo,
		generationRepo: generationRepo,
	}
}

func (s *HistoryTrimJob) Run() {
	traceID := "job-history-trim-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	keep := config.Cfg.Credits.HistoryKeep
	if keep <= 0 {
		keep = 100
	}

	if err := s.generationRepo.TrimJobs(ctx, keep); err != nil {
		log.ErrorContext(ctx, "trim generation jobs error", "err", err)
	}
	if err := s.creditRepo.TrimTransactions(ctx, keep); err != nil {
		log.ErrorContext(ctx, "trim credit transactions error", "err", err)
	}

	log.InfoContext(ctx, "HistoryTrimJob finished", "keep", keep)
}
