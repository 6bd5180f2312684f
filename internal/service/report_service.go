package service

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/pkg/metrics"
)

const (
	dashboardTopEarners = 5
	dashboardRecent     = 10
)

// ReportService 报表业务接口
type ReportService interface {
	Financial(ctx context.Context) (*dto.FinancialReportResponse, error)
	Members(ctx context.Context) (*dto.MemberReportResponse, error)
	MarketExchange(ctx context.Context) (*dto.MarketExchangeResponse, error)
	// Integrity 由数据表实时对账，并与财务快照比较
	Integrity(ctx context.Context) (*dto.IntegrityReportResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	// ExportFinancial 导出财务报表为 Excel，返回内容与建议文件名
	ExportFinancial(ctx context.Context) (*bytes.Buffer, string, error)
}

type reportService struct {
	repo    *repository.Repository
	metrics *metrics.Manager
	logger  *zap.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, m *metrics.Manager, loc *time.Location, logger *zap.Logger) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{
		repo:    repo,
		metrics: m,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// ────────────────────── Financial ──────────────────────

func (s *reportService) Financial(ctx context.Context) (*dto.FinancialReportResponse, error) {
	items, err := s.repo.Loot.ListDetailed(ctx)
	if err != nil {
		s.logger.Error("查询战利品失败", zap.Error(err))
		return nil, err
	}
	members, err := s.repo.Member.List(ctx)
	if err != nil {
		s.logger.Error("列出成员失败", zap.Error(err))
		return nil, err
	}
	statuses, err := s.repo.Loot.SumByStatus(ctx)
	if err != nil {
		s.logger.Error("按状态汇总失败", zap.Error(err))
		return nil, err
	}
	live, err := s.liveIntegrity(ctx)
	if err != nil {
		return nil, err
	}

	var totalValue float64
	var totalPaid int64
	for i := range items {
		totalValue += items[i].Value
		totalPaid += paidOn(&items[i])
	}

	earnings := memberEarnings(items, members)
	bosses := bossPerformance(items)

	return &dto.FinancialReportResponse{
		GeneratedAt: dto.FormatTime(s.now()),
		Summary: dto.FinancialSummary{
			TotalLootValue:   totalValue,
			TotalDistributed: float64(totalPaid),
			GuildFund:        live.GuildFund,
			AdminFee:         live.AdminFee,
			TotalMembers:     int64(len(earnings)),
			TotalBosses:      len(bosses),
			TotalItems:       len(items),
		},
		IntegrityCheck:  toIntegrityResponse(live),
		MemberBreakdown: earnings,
		BossPerformance: bosses,
		StatusBreakdown: toStatusBreakdown(statuses),
	}, nil
}

// ────────────────────── Members ──────────────────────

func (s *reportService) Members(ctx context.Context) (*dto.MemberReportResponse, error) {
	members, err := s.repo.Member.List(ctx)
	if err != nil {
		s.logger.Error("列出成员失败", zap.Error(err))
		return nil, err
	}
	salaries, err := s.repo.Salary.ListDetailed(ctx)
	if err != nil {
		s.logger.Error("查询工资失败", zap.Error(err))
		return nil, err
	}
	attendances, err := s.repo.Attendance.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询出勤失败", zap.Error(err))
		return nil, err
	}
	weeks, err := s.repo.Attendance.DistinctWeeks(ctx)
	if err != nil {
		s.logger.Error("查询出勤周次失败", zap.Error(err))
		return nil, err
	}

	salaryByMember := make(map[string][]model.Salary)
	for _, sal := range salaries {
		salaryByMember[sal.MemberID] = append(salaryByMember[sal.MemberID], sal)
	}
	attended := make(map[string]map[string]bool)
	for _, a := range attendances {
		if attended[a.MemberID] == nil {
			attended[a.MemberID] = make(map[string]bool)
		}
		attended[a.MemberID][a.Week] = a.Attended
	}

	sort.SliceStable(members, func(i, j int) bool { return members[i].Name < members[j].Name })

	report := make([]dto.MemberReportLine, 0, len(members))
	for i := range members {
		m := &members[i]
		line := dto.MemberReportLine{
			MemberID:         m.MemberID,
			MemberName:       m.Name,
			Role:             string(m.Role),
			JoinDate:         dto.FormatTime(m.CreatedAt),
			PromotionDate:    dto.FormatTimePtr(m.PromotionDate),
			DemotionDate:     dto.FormatTimePtr(m.DemotionDate),
			LootBreakdown:    []dto.MemberLootLine{},
			WeeklyAttendance: []dto.WeeklyAttendance{},
		}

		for _, sal := range salaryByMember[m.MemberID] {
			line.TotalEarnings += sal.Amount
			line.TotalLootItems++
			if sal.LootItem == nil {
				continue
			}
			ll := dto.MemberLootLine{
				ItemName:     sal.LootItem.Name,
				ItemValue:    sal.LootItem.Value,
				SalaryAmount: sal.Amount,
				DateAcquired: dto.FormatTime(sal.LootItem.DateAcquired),
			}
			if sal.LootItem.Boss != nil {
				ll.BossName = sal.LootItem.Boss.Name
			}
			line.LootBreakdown = append(line.LootBreakdown, ll)
		}

		// 自加入周起的每个有记录周次都计入分母，无记录即缺勤
		joinWeek := WeekKey(m.CreatedAt.In(s.loc))
		var eligible, present int
		for w := len(weeks) - 1; w >= 0; w-- {
			week := weeks[w]
			if week < joinWeek {
				continue
			}
			eligible++
			ok := attended[m.MemberID][week]
			if ok {
				present++
			}
			line.WeeklyAttendance = append(line.WeeklyAttendance, dto.WeeklyAttendance{Week: week, Attended: ok})
		}
		if eligible > 0 {
			line.AttendanceRate = int(math.Round(float64(present) * 100 / float64(eligible)))
		}

		report = append(report, line)
	}

	return &dto.MemberReportResponse{
		GeneratedAt:  dto.FormatTime(s.now()),
		TotalMembers: len(report),
		Report:       report,
	}, nil
}

// ────────────────────── MarketExchange ──────────────────────

func (s *reportService) MarketExchange(ctx context.Context) (*dto.MarketExchangeResponse, error) {
	items, err := s.repo.Loot.ListDetailed(ctx)
	if err != nil {
		s.logger.Error("查询战利品失败", zap.Error(err))
		return nil, err
	}

	summary := dto.MarketExchangeSummary{
		ItemsByStatus: map[string]int{
			string(model.LootStatusPending): 0,
			string(model.LootStatusSold):    0,
			string(model.LootStatusSettled): 0,
		},
		ValueByStatus: map[string]float64{
			string(model.LootStatusPending): 0,
			string(model.LootStatusSold):    0,
			string(model.LootStatusSettled): 0,
		},
	}
	report := make([]dto.MarketExchangeLine, 0, len(items))
	for i := range items {
		item := &items[i]
		line := dto.MarketExchangeLine{
			ItemName:        item.Name,
			ItemValue:       item.Value,
			DateAcquired:    dto.FormatTime(item.DateAcquired),
			Status:          string(item.Status),
			Participants:    make([]string, 0, len(item.Participations)),
			SalaryBreakdown: make([]dto.SalaryLine, 0, len(item.Salaries)),
		}
		if item.Boss != nil {
			line.BossName = item.Boss.Name
		}
		for _, p := range item.Participations {
			if p.Member != nil {
				line.Participants = append(line.Participants, p.Member.Name)
			}
		}
		line.ParticipantCount = len(line.Participants)
		for _, sal := range item.Salaries {
			sl := dto.SalaryLine{SalaryAmount: sal.Amount}
			if sal.Member != nil {
				sl.MemberName = sal.Member.Name
				sl.MemberRole = string(sal.Member.Role)
			}
			line.SalaryBreakdown = append(line.SalaryBreakdown, sl)
			line.TotalSalariesPaid += sal.Amount
		}
		line.RemainderToGuildFund = item.Value - float64(line.TotalSalariesPaid)

		summary.TotalItems++
		summary.TotalValue += item.Value
		summary.TotalDistributed += line.TotalSalariesPaid
		summary.TotalToGuildFund += line.RemainderToGuildFund
		summary.ItemsByStatus[line.Status]++
		summary.ValueByStatus[line.Status] += item.Value

		report = append(report, line)
	}

	return &dto.MarketExchangeResponse{
		GeneratedAt: dto.FormatTime(s.now()),
		Summary:     summary,
		Report:      report,
	}, nil
}

// ────────────────────── Integrity ──────────────────────

func (s *reportService) Integrity(ctx context.Context) (*dto.IntegrityReportResponse, error) {
	live, err := s.liveIntegrity(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.IntegrityReportResponse{Live: toIntegrityResponse(live)}

	snap, err := s.repo.Financials.Get(ctx)
	switch {
	case err == nil:
		check := CheckIntegrity(snap.TotalLootValue, snap.TotalDistributed, snap.GuildFund, snap.AdminFee)
		sr := toIntegrityResponse(check)
		resp.Snapshot = &sr
		resp.UpdatedAt = dto.FormatTimePtr(&snap.UpdatedAt)
		resp.Stale = !sameTotals(live, check)
	case errors.Is(err, gorm.ErrRecordNotFound):
		resp.Stale = live.TotalLootValue != 0 || live.TotalDistributed != 0
	default:
		s.logger.Error("查询财务快照失败", zap.Error(err))
		return nil, err
	}

	if resp.Stale {
		s.logger.Warn("财务快照与实时数据不一致，需要重新计算工资",
			zap.Float64("live_total", live.TotalLootValue),
			zap.Float64("live_distributed", live.TotalDistributed),
		)
	}
	return resp, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *reportService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	resp := &dto.DashboardResponse{}

	snap, err := s.repo.Financials.Get(ctx)
	switch {
	case err == nil:
		resp.Financials = dto.FinancialSnapshot{
			TotalLootValue:   snap.TotalLootValue,
			TotalDistributed: snap.TotalDistributed,
			GuildFund:        snap.GuildFund,
			AdminFee:         snap.AdminFee,
			UpdatedAt:        dto.FormatTimePtr(&snap.UpdatedAt),
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.logger.Error("查询财务快照失败", zap.Error(err))
		return nil, err
	}

	statuses, err := s.repo.Loot.SumByStatus(ctx)
	if err != nil {
		s.logger.Error("按状态汇总失败", zap.Error(err))
		return nil, err
	}
	resp.LootSummary = toStatusBreakdown(statuses)

	items, err := s.repo.Loot.ListDetailed(ctx)
	if err != nil {
		s.logger.Error("查询战利品失败", zap.Error(err))
		return nil, err
	}
	members, err := s.repo.Member.List(ctx)
	if err != nil {
		s.logger.Error("列出成员失败", zap.Error(err))
		return nil, err
	}
	earners := memberEarnings(items, members)
	if len(earners) > dashboardTopEarners {
		earners = earners[:dashboardTopEarners]
	}
	resp.TopEarners = earners

	recent, err := s.repo.Loot.ListRecent(ctx, []model.LootStatus{model.LootStatusSold, model.LootStatusSettled}, dashboardRecent)
	if err != nil {
		s.logger.Error("查询最近结算失败", zap.Error(err))
		return nil, err
	}
	resp.RecentSettlements = make([]dto.LootItemResponse, 0, len(recent))
	for i := range recent {
		resp.RecentSettlements = append(resp.RecentSettlements, toLootItemResponse(&recent[i]))
	}

	live, err := s.liveIntegrity(ctx)
	if err != nil {
		return nil, err
	}
	resp.IntegrityCheck = toIntegrityResponse(live)
	return resp, nil
}

// ── 内部辅助方法 ──

// liveIntegrity 仅统计 SOLD 物品：价值合计、已发工资、每件有工资物品的余数，管理费取自快照
func (s *reportService) liveIntegrity(ctx context.Context) (IntegrityCheck, error) {
	statuses, err := s.repo.Loot.SumByStatus(ctx)
	if err != nil {
		s.logger.Error("按状态汇总失败", zap.Error(err))
		return IntegrityCheck{}, err
	}
	var soldValue float64
	for _, st := range statuses {
		if st.Status == model.LootStatusSold {
			soldValue = st.TotalValue
		}
	}

	paid, err := s.repo.Salary.SumForSold(ctx)
	if err != nil {
		s.logger.Error("汇总工资失败", zap.Error(err))
		return IntegrityCheck{}, err
	}

	totals, err := s.repo.Salary.ItemTotalsForSold(ctx)
	if err != nil {
		s.logger.Error("汇总物品工资失败", zap.Error(err))
		return IntegrityCheck{}, err
	}
	var fund float64
	for _, t := range totals {
		fund += t.Value - float64(t.Paid)
	}

	var fee float64
	snap, err := s.repo.Financials.Get(ctx)
	switch {
	case err == nil:
		fee = snap.AdminFee
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		s.logger.Error("查询财务快照失败", zap.Error(err))
		return IntegrityCheck{}, err
	}

	check := CheckIntegrity(soldValue, float64(paid), fund, fee)
	s.metrics.SetIntegrity(check.IsValid)
	return check, nil
}

func sameTotals(a, b IntegrityCheck) bool {
	return math.Abs(a.TotalLootValue-b.TotalLootValue) < integrityTolerance &&
		math.Abs(a.TotalDistributed-b.TotalDistributed) < integrityTolerance &&
		math.Abs(a.GuildFund-b.GuildFund) < integrityTolerance &&
		math.Abs(a.AdminFee-b.AdminFee) < integrityTolerance
}

func paidOn(item *model.LootItem) int64 {
	var paid int64
	for _, sal := range item.Salaries {
		paid += sal.Amount
	}
	return paid
}

// memberEarnings 按收入倒序，仅包含有收入的成员
func memberEarnings(items []model.LootItem, members []model.Member) []dto.MemberEarning {
	byMember := make(map[string]*dto.MemberEarning, len(members))
	order := make([]string, 0, len(members))
	for _, m := range members {
		byMember[m.MemberID] = &dto.MemberEarning{
			MemberID:   m.MemberID,
			MemberName: m.Name,
			Role:       string(m.Role),
		}
		order = append(order, m.MemberID)
	}
	for i := range items {
		for _, sal := range items[i].Salaries {
			e, ok := byMember[sal.MemberID]
			if !ok {
				continue
			}
			e.TotalEarnings += sal.Amount
			e.ItemCount++
		}
	}

	result := make([]dto.MemberEarning, 0, len(order))
	for _, id := range order {
		e := byMember[id]
		if e.TotalEarnings <= 0 {
			continue
		}
		e.AveragePerItem = float64(e.TotalEarnings) / float64(e.ItemCount)
		result = append(result, *e)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].TotalEarnings > result[j].TotalEarnings })
	return result
}

// bossPerformance 按产出价值倒序，仅包含有掉落的 Boss
func bossPerformance(items []model.LootItem) []dto.BossPerformance {
	byBoss := make(map[string]*dto.BossPerformance)
	var order []string
	for i := range items {
		item := &items[i]
		bp, ok := byBoss[item.BossID]
		if !ok {
			bp = &dto.BossPerformance{}
			if item.Boss != nil {
				bp.BossName = item.Boss.Name
			}
			byBoss[item.BossID] = bp
			order = append(order, item.BossID)
		}
		bp.TotalLootValue += item.Value
		bp.TotalDistributed += paidOn(item)
		bp.ItemCount++
	}

	result := make([]dto.BossPerformance, 0, len(order))
	for _, id := range order {
		bp := byBoss[id]
		bp.AverageItemValue = bp.TotalLootValue / float64(bp.ItemCount)
		result = append(result, *bp)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].TotalLootValue > result[j].TotalLootValue })
	return result
}

func toStatusBreakdown(totals []repository.StatusTotal) []dto.StatusBreakdown {
	result := make([]dto.StatusBreakdown, 0, len(totals))
	for _, t := range totals {
		result = append(result, dto.StatusBreakdown{
			Status:     string(t.Status),
			ItemCount:  t.ItemCount,
			TotalValue: t.TotalValue,
		})
	}
	return result
}

func toIntegrityResponse(c IntegrityCheck) dto.IntegrityResponse {
	return dto.IntegrityResponse{
		TotalLootValue:   c.TotalLootValue,
		TotalDistributed: c.TotalDistributed,
		GuildFund:        c.GuildFund,
		AdminFee:         c.AdminFee,
		CalculatedTotal:  c.CalculatedTotal,
		IsValid:          c.IsValid,
	}
}
