// Package kafka 将领域事件投递到 Kafka 主题
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	skafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"guild-ledger/backend/config"
	"guild-ledger/backend/pkg/events"
)

// Writer kafka.Writer 的最小接口，便于测试替换
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// Producer 事件生产者
type Producer struct {
	writer Writer
	logger *zap.Logger
}

// NewProducer 按配置创建生产者
// 使用 Hash 均衡器，同一 Key 的事件落在同一分区
func NewProducer(cfg *config.KafkaConfig, logger *zap.Logger) *Producer {
	w := &skafka.Writer{
		Addr:                   skafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &skafka.Hash{},
		RequiredAcks:           skafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(w, logger)
}

// NewProducerWithWriter 使用自定义 Writer 创建生产者
func NewProducerWithWriter(w Writer, logger *zap.Logger) *Producer {
	return &Producer{writer: w, logger: logger}
}

// Publish 序列化事件并写入主题
func (p *Producer) Publish(ctx context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := skafka.Message{
		Key:   []byte(e.Key),
		Value: payload,
		Headers: []skafka.Header{
			{Key: "event-type", Value: []byte(e.Type)},
			{Key: "event-id", Value: []byte(e.ID)},
		},
		Time: e.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Kafka 写入失败",
			zap.String("type", string(e.Type)),
			zap.String("key", e.Key),
			zap.Error(err),
		)
		return fmt.Errorf("写入 Kafka 失败: %w", err)
	}

	p.logger.Debug("Kafka 事件已发布", zap.String("type", string(e.Type)), zap.String("id", e.ID))
	return nil
}

// Close 关闭底层 Writer
func (p *Producer) Close() error {
	return p.writer.Close()
}
