package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/pkg/events"
	"guild-ledger/backend/pkg/metrics"
)

const recalculationKey = "salary-recalculation"

// SalaryService 工资分配引擎
type SalaryService interface {
	// Recalculate 全量重算所有 SOLD 物品的工资并覆盖公会财务快照
	// 并发调用合并为一次执行；任何错误都会回滚全部写入
	Recalculate(ctx context.Context) (*dto.RecalculationResponse, error)
}

type salaryService struct {
	repo      *repository.Repository
	publisher events.Publisher
	metrics   *metrics.Manager
	logger    *zap.Logger
	group     singleflight.Group
	now       func() time.Time
}

// NewSalaryService 创建 SalaryService 实例
func NewSalaryService(
	repo *repository.Repository,
	publisher events.Publisher,
	m *metrics.Manager,
	logger *zap.Logger,
) SalaryService {
	return &salaryService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *salaryService) Recalculate(ctx context.Context) (*dto.RecalculationResponse, error) {
	// 合并后的重算不随首个调用方取消
	v, err, shared := s.group.Do(recalculationKey, func() (interface{}, error) {
		return s.recalculate(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("工资重算与并发请求合并")
	}
	resp := *v.(*dto.RecalculationResponse)
	return &resp, nil
}

func (s *salaryService) recalculate(ctx context.Context) (*dto.RecalculationResponse, error) {
	started := s.now()

	var (
		plan     DistributionPlan
		adminFee float64
		items    int
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 锁定财务快照行，跨进程串行化
		existing, err := tx.Financials.GetForUpdate(ctx)
		if err != nil {
			return err
		}
		adminFee = existing.AdminFee

		// 2. 加载输入
		sold, err := tx.Loot.ListByStatus(ctx, model.LootStatusSold)
		if err != nil {
			return err
		}
		members, err := tx.Member.List(ctx)
		if err != nil {
			return err
		}
		periods, err := tx.RolePeriod.ListAll(ctx)
		if err != nil {
			return err
		}
		items = len(sold)

		// 3. 清空旧工资
		if _, err := tx.Salary.DeleteForSold(ctx); err != nil {
			return err
		}

		// 4. 计算并写入
		plan = PlanDistribution(sold, members, NewRoleIndex(periods))
		if salaries := plan.Salaries(); len(salaries) > 0 {
			if err := tx.Salary.BatchCreate(ctx, salaries); err != nil {
				return err
			}
		}

		// 5. 覆盖快照
		return tx.Financials.Upsert(ctx, &model.GuildFinancials{
			TotalLootValue:   plan.TotalLootValue,
			TotalDistributed: plan.TotalDistributed,
			GuildFund:        plan.GuildFund,
			AdminFee:         adminFee,
		})
	})

	elapsed := s.now().Sub(started)
	s.metrics.ObserveRecalculation(elapsed, plan.SalaryCount, plan.ItemsWithoutBeneficiaries, err)
	if err != nil {
		s.logger.Error("工资重算失败，已回滚", zap.Error(err))
		return nil, err
	}

	for _, a := range plan.Allocations {
		if len(a.Beneficiaries) == 0 {
			s.logger.Warn("物品没有可分配的成员，价值未计入分配与基金",
				zap.String("loot_item_id", a.LootItemID),
				zap.Float64("value", a.Value),
				zap.Time("date_acquired", a.DateAcquired),
			)
		}
	}

	check := CheckIntegrity(plan.TotalLootValue, plan.TotalDistributed, plan.GuildFund, adminFee)
	s.metrics.SetIntegrity(check.IsValid)

	resp := &dto.RecalculationResponse{
		TotalLootValue:            plan.TotalLootValue,
		TotalDistributed:          plan.TotalDistributed,
		GuildFund:                 plan.GuildFund,
		AdminFee:                  adminFee,
		ItemsProcessed:            items,
		SalariesCreated:           plan.SalaryCount,
		ItemsWithoutBeneficiaries: plan.ItemsWithoutBeneficiaries,
		DurationMs:                elapsed.Milliseconds(),
	}

	s.logger.Info("工资重算完成",
		zap.Int("items", items),
		zap.Int("salaries", plan.SalaryCount),
		zap.Float64("total_loot_value", plan.TotalLootValue),
		zap.Float64("total_distributed", plan.TotalDistributed),
		zap.Float64("guild_fund", plan.GuildFund),
		zap.Duration("elapsed", elapsed),
	)
	publishEvent(ctx, s.publisher, s.logger, events.New(events.SalaryRecalculated, model.GuildFinancialsKey, resp))

	return resp, nil
}
