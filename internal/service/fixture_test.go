package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/internal/testdb"
	"guild-ledger/backend/pkg/events"
)

// ── 测试辅助 ──

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) count(t events.Type) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

type fixture struct {
	t    *testing.T
	ctx  context.Context
	repo *repository.Repository
	pub  *recordingPublisher
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:    t,
		ctx:  context.Background(),
		repo: repository.NewRepository(testdb.New(t)),
		pub:  &recordingPublisher{},
		now:  time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) member(name string, role model.Role, since time.Time) *model.Member {
	f.t.Helper()
	var m *model.Member
	err := f.repo.Transaction(f.ctx, func(tx *repository.Repository) error {
		var err error
		m, err = createMember(f.ctx, tx, name, role, since, initialMemberReason, f.now)
		return err
	})
	if err != nil {
		f.t.Fatalf("创建成员 %s 失败: %v", name, err)
	}
	return m
}

func (f *fixture) promote(memberID string, role model.Role, at time.Time) {
	f.t.Helper()
	err := f.repo.Transaction(f.ctx, func(tx *repository.Repository) error {
		_, err := addRolePeriod(f.ctx, tx, memberID, role, at, nil, "promotion", f.now)
		return err
	})
	if err != nil {
		f.t.Fatalf("追加有效期失败: %v", err)
	}
}

func (f *fixture) boss(name string) *model.Boss {
	f.t.Helper()
	b := &model.Boss{Name: name, Type: model.BossTypeNormal, RespawnMinutes: 60}
	if err := f.repo.Boss.Create(f.ctx, b); err != nil {
		f.t.Fatalf("创建 Boss 失败: %v", err)
	}
	return b
}

func (f *fixture) loot(name, bossID string, value float64, at time.Time, status model.LootStatus, memberIDs ...string) *model.LootItem {
	f.t.Helper()
	item := &model.LootItem{Name: name, BossID: bossID, Value: value, DateAcquired: at, Status: status}
	for _, id := range memberIDs {
		item.Participations = append(item.Participations, model.Participation{MemberID: id})
	}
	if err := f.repo.Loot.Create(f.ctx, item); err != nil {
		f.t.Fatalf("创建战利品失败: %v", err)
	}
	return item
}

func (f *fixture) salaryService() *salaryService {
	svc := NewSalaryService(f.repo, f.pub, nil, zap.NewNop()).(*salaryService)
	svc.now = time.Now
	return svc
}

func (f *fixture) timelineService() *roleTimelineService {
	svc := NewRoleTimelineService(f.repo, f.pub, zap.NewNop()).(*roleTimelineService)
	svc.now = f.clock
	return svc
}

func (f *fixture) memberService() *memberService {
	svc := NewMemberService(f.repo, f.pub, zap.NewNop()).(*memberService)
	svc.now = f.clock
	return svc
}
