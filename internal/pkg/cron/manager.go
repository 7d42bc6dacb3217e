package cron

import (
	"Atelier/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine         *cron.Cron
	viewFlushJob   *job.ViewFlushJob
	historyTrimJob *job.HistoryTrimJob
}

func NewCronManager(viewFlushJob *job.ViewFlushJob, historyTrimJob *job.HistoryTrimJob) *Manager {
	return &Manager{
		engine:         cron.New(cron.WithSeconds()),
		viewFlushJob:   viewFlushJob,
		historyTrimJob: historyTrimJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	// 浏览量每分钟回写一次
	if _, err := s.engine.AddJob("0 * * * * *", s.viewFlushJob); err != nil {
		return err
	}
	if _, err := s.engine.AddJob("@daily", s.historyTrimJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
