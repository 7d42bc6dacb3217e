package taskqueue

import (
	"Atelier/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理任务消费者
type ConsumerManager struct {
	taskConsumer sarama.ConsumerGroup
	taskHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, runner GenerationRunner, status *StatusStore) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	taskConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaTaskConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}
	taskHandler := NewGenerationHandler(runner, status)

	return &ConsumerManager{
		taskConsumer: taskConsumer,
		taskHandler:  taskHandler,
	}, nil
}

// Start 启动消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaTaskConsumer.Topic
		log.Info("Generation task consumer started", "topic", topic)
		for {
			if err := m.taskConsumer.Consume(ctx, []string{topic}, m.taskHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	<-ctx.Done()
	log.Info("Task queue manager shutting down...")

	if err := m.taskConsumer.Close(); err != nil {
		log.Error("Failed to close task consumer", "err", err)
	}

	return nil
}
