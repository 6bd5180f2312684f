package repository_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/internal/testdb"
	pkgerrors "guild-ledger/backend/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newRepo(t *testing.T) *repository.Repository {
	t.Helper()
	return repository.NewRepository(testdb.New(t))
}

func mustMember(t *testing.T, repo *repository.Repository, name string) *model.Member {
	t.Helper()
	m := &model.Member{Name: name, Role: model.RoleMember}
	if err := repo.Member.Create(context.Background(), m); err != nil {
		t.Fatalf("创建成员失败: %v", err)
	}
	return m
}

func mustBoss(t *testing.T, repo *repository.Repository, name string) *model.Boss {
	t.Helper()
	b := &model.Boss{Name: name, Type: model.BossTypeNormal, RespawnMinutes: 60}
	if err := repo.Boss.Create(context.Background(), b); err != nil {
		t.Fatalf("创建 Boss 失败: %v", err)
	}
	return b
}

func mustLoot(t *testing.T, repo *repository.Repository, boss *model.Boss, name string, value float64, at time.Time, status model.LootStatus, members ...*model.Member) *model.LootItem {
	t.Helper()
	item := &model.LootItem{Name: name, Value: value, DateAcquired: at, Status: status, BossID: boss.BossID}
	for _, m := range members {
		item.Participations = append(item.Participations, model.Participation{MemberID: m.MemberID})
	}
	if err := repo.Loot.Create(context.Background(), item); err != nil {
		t.Fatalf("创建战利品失败: %v", err)
	}
	return item
}

// ── RolePeriod ──

func TestRolePeriodRepo_CloseOpenAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	m := mustMember(t, repo, "Alice")

	open := &model.RolePeriod{MemberID: m.MemberID, Role: model.RoleMember, StartDate: day(2026, 1, 1)}
	if err := repo.RolePeriod.Create(ctx, open); err != nil {
		t.Fatalf("创建有效期失败: %v", err)
	}

	end := day(2026, 2, 1).Add(-time.Millisecond)
	n, err := repo.RolePeriod.CloseOpen(ctx, m.MemberID, end)
	if err != nil || n != 1 {
		t.Fatalf("CloseOpen 期望关闭 1 条，实际 n=%d err=%v", n, err)
	}

	got, err := repo.RolePeriod.GetByID(ctx, open.PeriodID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	if got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Fatalf("期望 end_date=%v，实际=%v", end, got.EndDate)
	}

	// 清空 end_date 需要写入 NULL
	got.EndDate = nil
	got.Role = model.RoleCore
	if err := repo.RolePeriod.Update(ctx, got); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	reloaded, _ := repo.RolePeriod.GetByID(ctx, open.PeriodID)
	if reloaded.EndDate != nil {
		t.Errorf("期望 end_date 被清空，实际=%v", reloaded.EndDate)
	}
	if reloaded.Role != model.RoleCore {
		t.Errorf("期望 role=CORE，实际=%s", reloaded.Role)
	}
}

func TestRolePeriodRepo_ListMembersWithoutHistory(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	withHistory := mustMember(t, repo, "Alice")
	without := mustMember(t, repo, "Bob")

	_ = repo.RolePeriod.Create(ctx, &model.RolePeriod{MemberID: withHistory.MemberID, Role: model.RoleMember, StartDate: day(2026, 1, 1)})

	members, err := repo.RolePeriod.ListMembersWithoutHistory(ctx)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(members) != 1 || members[0].MemberID != without.MemberID {
		t.Errorf("期望仅返回 Bob，实际=%+v", members)
	}
}

// ── Boss ──

func TestBossRepo_OptimisticLock(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	b := mustBoss(t, repo, "Kzarka")

	stale := *b
	killed := day(2026, 5, 1)
	b.LastKilledAt = &killed
	if err := repo.Boss.Update(ctx, b); err != nil {
		t.Fatalf("第一次更新失败: %v", err)
	}
	if b.Version != 2 {
		t.Errorf("期望 version=2，实际=%d", b.Version)
	}

	stale.RespawnMinutes = 120
	if err := repo.Boss.Update(ctx, &stale); err != pkgerrors.ErrOptimisticLock {
		t.Errorf("期望 ErrOptimisticLock，实际=%v", err)
	}
}

func TestBossRepo_DeleteRestrictedByLoot(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	b := mustBoss(t, repo, "Nouver")
	mustLoot(t, repo, b, "Belt", 100, day(2026, 1, 1), model.LootStatusPending)

	if err := repo.Boss.Delete(ctx, b.BossID); err == nil {
		t.Error("被引用的 Boss 删除应违反外键约束")
	}
	if n, _ := repo.Loot.CountByBoss(ctx, b.BossID); n != 1 {
		t.Errorf("期望 CountByBoss=1，实际=%d", n)
	}
}

// ── Loot ──

func TestLootRepo_SearchMatchesItemBossAndParticipant(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	alice := mustMember(t, repo, "Alice")
	kzarka := mustBoss(t, repo, "Kzarka")
	nouver := mustBoss(t, repo, "Nouver")

	mustLoot(t, repo, kzarka, "Kzarka Longsword", 100, day(2026, 1, 1), model.LootStatusPending)
	mustLoot(t, repo, nouver, "Dandelion", 200, day(2026, 1, 2), model.LootStatusSold, alice)
	mustLoot(t, repo, nouver, "Belt", 300, day(2026, 1, 3), model.LootStatusSold)

	cases := []struct {
		search string
		want   int64
	}{
		{"longsword", 1}, // 物品名
		{"NOUVER", 2},    // Boss 名，大小写不敏感
		{"ali", 1},       // 参与者名
		{"", 3},
		{"nothing", 0},
	}
	for _, tc := range cases {
		items, total, err := repo.Loot.List(ctx, repository.LootFilter{Search: tc.search})
		if err != nil {
			t.Fatalf("List(%q) 失败: %v", tc.search, err)
		}
		if total != tc.want || int64(len(items)) != tc.want {
			t.Errorf("List(%q) 期望 %d 条，实际 total=%d len=%d", tc.search, tc.want, total, len(items))
		}
	}

	items, _, _ := repo.Loot.List(ctx, repository.LootFilter{})
	if !items[0].DateAcquired.Equal(day(2026, 1, 3)) {
		t.Errorf("列表应按获得时间倒序，首项=%v", items[0].DateAcquired)
	}
	if items[1].Boss == nil || len(items[1].Participations) != 1 || items[1].Participations[0].Member == nil {
		t.Error("列表应预加载 Boss 与参与成员")
	}

	page, total, _ := repo.Loot.List(ctx, repository.LootFilter{Offset: 2, Limit: 2})
	if total != 3 || len(page) != 1 {
		t.Errorf("分页期望 total=3 len=1，实际 total=%d len=%d", total, len(page))
	}
}

func TestLootRepo_ReplaceParticipations(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a, b, c := mustMember(t, repo, "A"), mustMember(t, repo, "B"), mustMember(t, repo, "C")
	boss := mustBoss(t, repo, "Karanda")
	item := mustLoot(t, repo, boss, "Ring", 100, day(2026, 1, 1), model.LootStatusPending, a, b)

	if err := repo.Loot.ReplaceParticipations(ctx, item.LootItemID, []string{c.MemberID}); err != nil {
		t.Fatalf("ReplaceParticipations 失败: %v", err)
	}
	got, _ := repo.Loot.GetByID(ctx, item.LootItemID)
	if len(got.Participations) != 1 || got.Participations[0].MemberID != c.MemberID {
		t.Errorf("期望仅剩 C 参与，实际=%+v", got.Participations)
	}
}

func TestLootRepo_ParticipantIDsBetween(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a, b, c := mustMember(t, repo, "A"), mustMember(t, repo, "B"), mustMember(t, repo, "C")
	boss := mustBoss(t, repo, "Kutum")

	mustLoot(t, repo, boss, "In-1", 1, day(2026, 3, 2), model.LootStatusPending, a, b)
	mustLoot(t, repo, boss, "In-2", 1, day(2026, 3, 8), model.LootStatusSold, a)
	mustLoot(t, repo, boss, "Out", 1, day(2026, 3, 9), model.LootStatusSold, c)

	ids, err := repo.Loot.ParticipantIDsBetween(ctx, day(2026, 3, 2), day(2026, 3, 8))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("期望 2 名去重参与者，实际=%v", ids)
	}
	for _, id := range ids {
		if id == c.MemberID {
			t.Error("窗口外物品的参与者不应出现")
		}
	}
}

// ── Salary ──

func TestSalaryRepo_SoldScopedOperations(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a := mustMember(t, repo, "A")
	boss := mustBoss(t, repo, "Garmoth")
	sold := mustLoot(t, repo, boss, "Heart", 10001, day(2026, 1, 1), model.LootStatusSold, a)
	settled := mustLoot(t, repo, boss, "Horn", 500, day(2026, 1, 2), model.LootStatusSettled, a)

	err := repo.Salary.BatchCreate(ctx, []model.Salary{
		{MemberID: a.MemberID, LootItemID: sold.LootItemID, Amount: 3333},
		{MemberID: a.MemberID, LootItemID: sold.LootItemID, Amount: 3333},
		{MemberID: a.MemberID, LootItemID: settled.LootItemID, Amount: 500},
	})
	if err != nil {
		t.Fatalf("BatchCreate 失败: %v", err)
	}

	sum, err := repo.Salary.SumForSold(ctx)
	if err != nil || sum != 6666 {
		t.Errorf("期望 SOLD 工资合计 6666，实际=%d err=%v", sum, err)
	}

	totals, err := repo.Salary.ItemTotalsForSold(ctx)
	if err != nil || len(totals) != 1 {
		t.Fatalf("期望 1 件 SOLD 物品，实际=%v err=%v", totals, err)
	}
	if totals[0].Paid != 6666 || totals[0].Value != 10001 {
		t.Errorf("物品合计不符合预期: %+v", totals[0])
	}

	n, err := repo.Salary.DeleteForSold(ctx)
	if err != nil || n != 2 {
		t.Errorf("期望删除 2 条 SOLD 工资，实际=%d err=%v", n, err)
	}
	rest, _ := repo.Salary.ListDetailed(ctx)
	if len(rest) != 1 || rest[0].LootItemID != settled.LootItemID {
		t.Errorf("SETTLED 物品的工资应保留，实际=%+v", rest)
	}
	if rest[0].LootItem == nil || rest[0].LootItem.Boss == nil || rest[0].Member == nil {
		t.Error("ListDetailed 应预加载成员、物品与 Boss")
	}
}

// ── Attendance ──

func TestAttendanceRepo_MarkAttendedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a := mustMember(t, repo, "A")

	for i := 0; i < 3; i++ {
		if err := repo.Attendance.MarkAttended(ctx, a.MemberID, "2026-10"); err != nil {
			t.Fatalf("第 %d 次 MarkAttended 失败: %v", i+1, err)
		}
	}
	_ = repo.Attendance.MarkAttended(ctx, a.MemberID, "2026-11")

	rows, _ := repo.Attendance.ListByMember(ctx, a.MemberID)
	if len(rows) != 2 {
		t.Fatalf("期望 2 行出勤，实际 %d 行", len(rows))
	}
	if rows[0].Week != "2026-11" || !rows[0].Attended {
		t.Errorf("期望按周倒序且 attended=true，实际=%+v", rows[0])
	}

	weeks, _ := repo.Attendance.DistinctWeeks(ctx)
	if len(weeks) != 2 || weeks[0] != "2026-10" {
		t.Errorf("DistinctWeeks 不符合预期: %v", weeks)
	}
}

// ── Financials ──

func TestFinancialsRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if _, err := repo.Financials.Get(ctx); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("空库应返回 ErrRecordNotFound，实际=%v", err)
	}

	if err := repo.Financials.Upsert(ctx, &model.GuildFinancials{TotalLootValue: 100, TotalDistributed: 99, GuildFund: 1}); err != nil {
		t.Fatalf("首次 Upsert 失败: %v", err)
	}
	if err := repo.Financials.Upsert(ctx, &model.GuildFinancials{TotalLootValue: 200, TotalDistributed: 198, GuildFund: 2, AdminFee: 0}); err != nil {
		t.Fatalf("再次 Upsert 失败: %v", err)
	}

	f, err := repo.Financials.GetForUpdate(ctx)
	if err != nil {
		t.Fatalf("GetForUpdate 失败: %v", err)
	}
	if f.TotalLootValue != 200 || f.GuildFund != 2 {
		t.Errorf("快照应被整体覆盖，实际=%+v", f)
	}
}

func TestFinancialsRepo_GetForUpdateCreatesMissingRow(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	var locked *model.GuildFinancials
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		locked, err = tx.Financials.GetForUpdate(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("首次 GetForUpdate 应写入空快照，实际 err=%v", err)
	}
	if locked.ID != model.GuildFinancialsKey || locked.TotalLootValue != 0 || locked.AdminFee != 0 {
		t.Errorf("首次快照应为全零，实际=%+v", locked)
	}

	// 已存在的行不会被覆盖
	if err := repo.Financials.Upsert(ctx, &model.GuildFinancials{TotalLootValue: 10, AdminFee: 3}); err != nil {
		t.Fatal(err)
	}
	again, err := repo.Financials.GetForUpdate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if again.TotalLootValue != 10 || again.AdminFee != 3 {
		t.Errorf("已有快照不应被重置，实际=%+v", again)
	}
}

// ── Transaction ──

func TestRepository_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	boom := errors.New("boom")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Member.Create(ctx, &model.Member{Name: "Ghost"}); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("期望事务返回 boom，实际=%v", err)
	}

	if _, err := repo.Member.GetByName(ctx, "Ghost"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("回滚后成员不应存在，实际 err=%v", err)
	}
}

func TestMemberRepo_DuplicateName(t *testing.T) {
	repo := newRepo(t)
	mustMember(t, repo, "Alice")
	if err := repo.Member.Create(context.Background(), &model.Member{Name: "Alice"}); err == nil {
		t.Error("重名成员应违反唯一约束")
	}
}

func TestMemberRepo_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a := mustMember(t, repo, "A")
	boss := mustBoss(t, repo, "Offin")
	item := mustLoot(t, repo, boss, "Ring", 100, day(2026, 1, 1), model.LootStatusSold, a)
	_ = repo.RolePeriod.Create(ctx, &model.RolePeriod{MemberID: a.MemberID, Role: model.RoleCore, StartDate: day(2025, 1, 1)})
	_ = repo.Salary.BatchCreate(ctx, []model.Salary{{MemberID: a.MemberID, LootItemID: item.LootItemID, Amount: 100}})
	_ = repo.Attendance.MarkAttended(ctx, a.MemberID, "2026-01")

	n, err := repo.Member.Delete(ctx, a.MemberID)
	if err != nil || n != 1 {
		t.Fatalf("删除成员失败: n=%d err=%v", n, err)
	}

	periods, _ := repo.RolePeriod.ListAll(ctx)
	salaries, _ := repo.Salary.ListDetailed(ctx)
	attendance, _ := repo.Attendance.ListAll(ctx)
	got, _ := repo.Loot.GetByID(ctx, item.LootItemID)
	if len(periods) != 0 || len(salaries) != 0 || len(attendance) != 0 || len(got.Participations) != 0 {
		t.Errorf("删除成员应级联删除有效期、工资、出勤与参与记录")
	}
}

func TestSchema_ForeignKeysPointAtParents(t *testing.T) {
	db := testdb.New(t)

	tableSQL := func(name string) string {
		t.Helper()
		var sql string
		if err := db.Raw("SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&sql).Error; err != nil {
			t.Fatalf("读取 %s 建表语句失败: %v", name, err)
		}
		return sql
	}

	for _, parent := range []string{"members", "bosses"} {
		if sql := tableSQL(parent); strings.Contains(sql, "REFERENCES") {
			t.Errorf("%s 不应引用其他表: %s", parent, sql)
		}
	}

	tests := []struct {
		table string
		want  []string
	}{
		{"member_role_periods", []string{"REFERENCES `members`"}},
		{"attendances", []string{"REFERENCES `members`"}},
		{"loot_items", []string{"REFERENCES `bosses`"}},
		{"loot_participations", []string{"REFERENCES `members`", "REFERENCES `loot_items`"}},
		{"salaries", []string{"REFERENCES `members`", "REFERENCES `loot_items`"}},
	}
	for _, tt := range tests {
		sql := tableSQL(tt.table)
		for _, w := range tt.want {
			if !strings.Contains(sql, w) {
				t.Errorf("%s 缺少外键 %q: %s", tt.table, w, sql)
			}
		}
	}
}

func TestMemberAndBossInsertWithForeignKeysOn(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	a := mustMember(t, repo, "A")
	boss := mustBoss(t, repo, "Venatus")
	mustLoot(t, repo, boss, "Ring", 100, day(2026, 1, 1), model.LootStatusPending, a)

	if err := repo.RolePeriod.Create(ctx, &model.RolePeriod{MemberID: a.MemberID, Role: model.RoleCore, StartDate: day(2026, 1, 1)}); err != nil {
		t.Fatalf("写入有效期失败: %v", err)
	}
	if err := repo.RolePeriod.Create(ctx, &model.RolePeriod{MemberID: "missing", Role: model.RoleCore, StartDate: day(2026, 1, 1)}); err == nil {
		t.Error("引用不存在的成员应违反外键约束")
	}
}
