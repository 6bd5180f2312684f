package events

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	got []Event
	err error
}

func (r *recordingPublisher) Publish(_ context.Context, e Event) error {
	r.got = append(r.got, e)
	return r.err
}

func TestNew(t *testing.T) {
	e := New(BossKilled, "boss-1", map[string]string{"name": "Kutum"})
	if e.ID == "" {
		t.Error("事件 ID 不应为空")
	}
	if e.Type != BossKilled || e.Key != "boss-1" {
		t.Errorf("事件字段不符合预期: %+v", e)
	}
	if e.OccurredAt.Location().String() != "UTC" {
		t.Errorf("期望 UTC 时间，实际=%s", e.OccurredAt.Location())
	}
}

func TestMulti_DeliversToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingPublisher{}
	b := &recordingPublisher{err: boom}
	c := &recordingPublisher{}

	err := Multi{a, nil, b, c}.Publish(context.Background(), New(RoleChanged, "m1", nil))

	if !errors.Is(err, boom) {
		t.Errorf("期望返回 boom 错误，实际=%v", err)
	}
	if len(a.got) != 1 || len(b.got) != 1 || len(c.got) != 1 {
		t.Error("所有发布者都应收到事件，即使其中一个失败")
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Publish(context.Background(), New(AttendanceSynced, "2026-42", nil)); err != nil {
		t.Errorf("Nop 不应返回错误: %v", err)
	}
}
