package taskqueue

import (
	"Atelier/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type Producer interface {
	Enqueue(ctx context.Context, taskName string, payload any) (string, error)
	Close() error
}

type ProducerImpl struct {
	producer sarama.SyncProducer
	topic    string
	status   *StatusStore
}

func NewProducer(cfg *config.Config, status *StatusStore) (Producer, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ProducerImpl{
		producer: producer,
		topic:    cfg.KafkaTaskConsumer.Topic,
		status:   status,
	}, nil
}

// Enqueue 投递任务并返回任务ID，同时在 Redis 中登记 pending 状态
func (s *ProducerImpl) Enqueue(ctx context.Context, taskName string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	task := Task{
		ID:      uuid.NewString(),
		Name:    taskName,
		Payload: data,
	}

	value, err := json.Marshal(&task)
	if err != nil {
		return "", err
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(task.ID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return "", err
	}

	if err = s.status.MarkPending(ctx, task.ID); err != nil {
		log.WarnContext(ctx, "任务状态登记失败", "task_id", task.ID, "err", err)
	}

	log.InfoContext(ctx, "任务已入队", "task_id", task.ID, "name", taskName, "partition", partition, "offset", offset)
	return task.ID, nil
}

func (s *ProducerImpl) Close() error {
	return s.producer.Close()
}
