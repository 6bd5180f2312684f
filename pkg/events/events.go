// Package events 定义公会领域事件及其投递接口
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type 事件类型
type Type string

const (
	SalaryRecalculated Type = "salary.recalculated"
	AttendanceSynced   Type = "attendance.synced"
	RoleChanged        Type = "role.changed"
	BossKilled         Type = "boss.killed"
)

// Event 领域事件
// Key 用作 Kafka 分区键，同一实体的事件保持有序
type Event struct {
	ID         string      `json:"id"`
	Type       Type        `json:"type"`
	Key        string      `json:"key"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// New 构造事件
func New(t Type, key string, payload interface{}) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       t,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher 事件发布者
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop 丢弃所有事件
type Nop struct{}

// Publish 实现 Publisher
func (Nop) Publish(context.Context, Event) error { return nil }

// Multi 将事件依次投递给多个发布者，汇总全部错误
type Multi []Publisher

// Publish 实现 Publisher
func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
