package service

import (
	"errors"
	"testing"
	"time"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/pkg/events"
)

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

// ── AddPeriod 测试 ──

func TestRoleTimeline_AddPeriod_ClosesOpenPeriod(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()
	m := f.member("Alice", model.RoleMember, day(2026, 1, 1))

	promotion := day(2026, 6, 1)
	_, err := svc.AddPeriod(f.ctx, m.MemberID, &dto.AddRolePeriodRequest{
		Role:      string(model.RoleCore),
		StartDate: timePtr(promotion),
		Reason:    "晋升",
	})
	if err != nil {
		t.Fatalf("AddPeriod 应成功: %v", err)
	}

	history, err := svc.History(f.ctx, m.MemberID)
	if err != nil {
		t.Fatalf("History 应成功: %v", err)
	}
	if len(history.Periods) != 2 {
		t.Fatalf("期望 2 段有效期，实际 %d", len(history.Periods))
	}
	closed := history.Periods[0]
	if closed.EndDate == nil || *closed.EndDate != dto.FormatTime(promotion.Add(-time.Millisecond)) {
		t.Errorf("旧有效期应结束于新起点前 1ms，实际 %v", closed.EndDate)
	}
	if history.Periods[1].EndDate != nil {
		t.Error("新有效期应为开放区间")
	}
	if history.CurrentRole == nil || *history.CurrentRole != string(model.RoleCore) {
		t.Errorf("期望当前角色 CORE，实际 %v", history.CurrentRole)
	}

	stored, _ := f.repo.Member.GetByID(f.ctx, m.MemberID)
	if stored.Role != model.RoleCore {
		t.Errorf("角色缓存应更新为 CORE，实际 %s", stored.Role)
	}
	if f.pub.count(events.RoleChanged) != 1 {
		t.Errorf("期望发布 1 个 role.changed 事件，实际 %d", f.pub.count(events.RoleChanged))
	}

	role, ok, _ := svc.RoleAt(f.ctx, m.MemberID, promotion.AddDate(0, 0, -1))
	if !ok || role != model.RoleMember {
		t.Errorf("晋升前一天应为 MEMBER，实际 %s", role)
	}
}

func TestRoleTimeline_AddPeriod_FutureStartKeepsOpenPeriod(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()
	m := f.member("Bob", model.RoleMember, day(2026, 1, 1))

	future := f.now.AddDate(0, 1, 0)
	if _, err := svc.AddPeriod(f.ctx, m.MemberID, &dto.AddRolePeriodRequest{
		Role:      string(model.RoleCore),
		StartDate: timePtr(future),
	}); err != nil {
		t.Fatalf("AddPeriod 应成功: %v", err)
	}

	history, _ := svc.History(f.ctx, m.MemberID)
	if history.Periods[0].EndDate != nil {
		t.Error("未来生效时不应关闭当前有效期")
	}

	current, ok, _ := svc.CurrentRole(f.ctx, m.MemberID)
	if !ok || current != model.RoleMember {
		t.Errorf("当前角色应仍为 MEMBER，实际 %s", current)
	}
	later, _, _ := svc.RoleAt(f.ctx, m.MemberID, future.Add(time.Hour))
	if later != model.RoleCore {
		t.Errorf("生效后应解析为 CORE，实际 %s", later)
	}

	stored, _ := f.repo.Member.GetByID(f.ctx, m.MemberID)
	if stored.Role != model.RoleMember {
		t.Errorf("角色缓存不应提前变更，实际 %s", stored.Role)
	}
}

func TestRoleTimeline_AddPeriod_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()
	m := f.member("Carol", model.RoleMember, day(2026, 1, 1))

	cases := []struct {
		name     string
		memberID string
		req      *dto.AddRolePeriodRequest
		want     error
	}{
		{"非法角色", m.MemberID, &dto.AddRolePeriodRequest{Role: "ADMIN", StartDate: timePtr(f.now)}, ErrInvalidRole},
		{"缺少开始时间", m.MemberID, &dto.AddRolePeriodRequest{Role: "CORE"}, ErrStartDateRequired},
		{"成员不存在", "missing", &dto.AddRolePeriodRequest{Role: "CORE", StartDate: timePtr(f.now)}, ErrMemberNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.AddPeriod(f.ctx, tc.memberID, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: 期望 %v，实际 %v", tc.name, tc.want, err)
		}
	}

	history, _ := svc.History(f.ctx, m.MemberID)
	if len(history.Periods) != 1 {
		t.Errorf("校验失败不应写入任何有效期，实际 %d 段", len(history.Periods))
	}
}

// ── UpdatePeriod / Overlaps 测试 ──

func TestRoleTimeline_UpdatePeriod_AllowsOverlap(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()
	m := f.member("Dave", model.RoleMember, day(2026, 1, 1))
	f.promote(m.MemberID, model.RoleCore, day(2026, 3, 1))

	history, _ := svc.History(f.ctx, m.MemberID)
	corePeriod := history.Periods[1]

	// 有效期修改按原样写入，不做重叠校验
	updated, err := svc.UpdatePeriod(f.ctx, corePeriod.ID, &dto.UpdateRolePeriodRequest{
		StartDate: timePtr(day(2026, 2, 1)),
		Reason:    strPtr("补录"),
	})
	if err != nil {
		t.Fatalf("UpdatePeriod 应成功: %v", err)
	}
	if updated.StartDate != dto.FormatTime(day(2026, 2, 1)) || updated.Reason != "补录" {
		t.Errorf("修改未生效: %+v", updated)
	}

	overlaps, err := svc.Overlaps(f.ctx, m.MemberID)
	if err != nil {
		t.Fatalf("Overlaps 应成功: %v", err)
	}
	if len(overlaps) != 1 {
		t.Fatalf("期望检出 1 对重叠，实际 %d", len(overlaps))
	}

	role, _, _ := svc.RoleAt(f.ctx, m.MemberID, day(2026, 2, 15))
	if role != model.RoleCore {
		t.Errorf("重叠区间内起点较晚者优先，期望 CORE，实际 %s", role)
	}
}

func TestRoleTimeline_UpdatePeriod_ClearEndAndRecompute(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()
	m := f.member("Erin", model.RoleCore, day(2026, 1, 1))
	f.promote(m.MemberID, model.RoleGuildMaster, day(2026, 4, 1))

	history, _ := svc.History(f.ctx, m.MemberID)
	gm := history.Periods[1]

	// 会长有效期改为已结束，当前时刻不再有覆盖的有效期，缓存保持原值
	if _, err := svc.UpdatePeriod(f.ctx, gm.ID, &dto.UpdateRolePeriodRequest{
		EndDate: timePtr(day(2026, 5, 1)),
	}); err != nil {
		t.Fatalf("UpdatePeriod 应成功: %v", err)
	}
	stored, _ := f.repo.Member.GetByID(f.ctx, m.MemberID)
	if stored.Role != model.RoleGuildMaster {
		t.Errorf("无覆盖有效期时缓存应保持 GUILD_MASTER，实际 %s", stored.Role)
	}

	// 重新打开原 CORE 有效期
	if _, err := svc.UpdatePeriod(f.ctx, history.Periods[0].ID, &dto.UpdateRolePeriodRequest{
		ClearEndDate: true,
	}); err != nil {
		t.Fatalf("UpdatePeriod 应成功: %v", err)
	}
	stored, _ = f.repo.Member.GetByID(f.ctx, m.MemberID)
	if stored.Role != model.RoleCore {
		t.Errorf("缓存应重新计算为 CORE，实际 %s", stored.Role)
	}
}

func TestRoleTimeline_UpdatePeriod_Errors(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()

	if _, err := svc.UpdatePeriod(f.ctx, "missing", &dto.UpdateRolePeriodRequest{}); !errors.Is(err, ErrRolePeriodNotFound) {
		t.Errorf("期望 ErrRolePeriodNotFound，实际 %v", err)
	}
	if _, err := svc.UpdatePeriod(f.ctx, "missing", &dto.UpdateRolePeriodRequest{Role: strPtr("KING")}); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("期望 ErrInvalidRole，实际 %v", err)
	}
}

// ── DeletePeriod 测试 ──

func TestRoleTimeline_DeletePeriod_LeavesStaleCache(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()
	m := f.member("Frank", model.RoleCore, day(2026, 1, 1))

	history, _ := svc.History(f.ctx, m.MemberID)
	if err := svc.DeletePeriod(f.ctx, history.Periods[0].ID); err != nil {
		t.Fatalf("DeletePeriod 应成功: %v", err)
	}

	if _, ok, _ := svc.CurrentRole(f.ctx, m.MemberID); ok {
		t.Error("删除唯一有效期后不应解析出角色")
	}
	stored, _ := f.repo.Member.GetByID(f.ctx, m.MemberID)
	if stored.Role != model.RoleCore {
		t.Errorf("角色缓存应保持 CORE，实际 %s", stored.Role)
	}

	if err := svc.DeletePeriod(f.ctx, history.Periods[0].ID); !errors.Is(err, ErrRolePeriodNotFound) {
		t.Errorf("重复删除期望 ErrRolePeriodNotFound，实际 %v", err)
	}
}

// ── InitializeHistory 测试 ──

func TestRoleTimeline_InitializeHistory(t *testing.T) {
	f := newFixture(t)
	svc := f.timelineService()

	legacy := &model.Member{Name: "Legacy", Role: model.RoleCore}
	if err := f.repo.Member.Create(f.ctx, legacy); err != nil {
		t.Fatalf("创建成员失败: %v", err)
	}
	f.member("Tracked", model.RoleMember, day(2026, 1, 1))

	result, err := svc.InitializeHistory(f.ctx)
	if err != nil {
		t.Fatalf("InitializeHistory 应成功: %v", err)
	}
	if result.Initialized != 1 {
		t.Errorf("期望补建 1 名成员，实际 %d", result.Initialized)
	}

	history, _ := svc.History(f.ctx, legacy.MemberID)
	if len(history.Periods) != 1 {
		t.Fatalf("期望 1 段有效期，实际 %d", len(history.Periods))
	}
	p := history.Periods[0]
	if p.Role != string(model.RoleCore) || p.EndDate != nil || p.Reason != "Initial role assignment" {
		t.Errorf("补建的有效期不正确: %+v", p)
	}
	if p.StartDate != dto.FormatTime(legacy.CreatedAt) {
		t.Errorf("起点应为成员创建时间 %s，实际 %s", dto.FormatTime(legacy.CreatedAt), p.StartDate)
	}

	again, _ := svc.InitializeHistory(f.ctx)
	if again.Initialized != 0 {
		t.Errorf("重复执行不应再补建，实际 %d", again.Initialized)
	}
}
