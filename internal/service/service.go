package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"guild-ledger/backend/config"
	"guild-ledger/backend/internal/repository"
	pkgerrors "guild-ledger/backend/pkg/errors"
	"guild-ledger/backend/pkg/events"
	"guild-ledger/backend/pkg/jwt"
	"guild-ledger/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	Member       MemberService
	RoleTimeline RoleTimelineService
	Boss         BossService
	Loot         LootService
	Salary       SalaryService
	Attendance   AttendanceService
	Report       ReportService
}

// Deps Service 层的外部依赖
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	Blacklist TokenBlacklist
	Publisher events.Publisher
	Metrics   *metrics.Manager
	Logger    *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(d Deps) *Service {
	pub := d.Publisher
	if pub == nil {
		pub = events.Nop{}
	}
	loc := d.Config.App.Location()

	return &Service{
		Auth:         NewAuthService(d.Repo, d.JWT, d.Blacklist, d.Logger),
		Member:       NewMemberService(d.Repo, pub, d.Logger),
		RoleTimeline: NewRoleTimelineService(d.Repo, pub, d.Logger),
		Boss:         NewBossService(d.Repo, pub, d.Logger),
		Loot:         NewLootService(d.Repo, loc, d.Logger),
		Salary:       NewSalaryService(d.Repo, pub, d.Metrics, d.Logger),
		Attendance:   NewAttendanceService(d.Repo, pub, d.Metrics, loc, d.Logger),
		Report:       NewReportService(d.Repo, d.Metrics, loc, d.Logger),
	}
}

// ── 包内共享 ──

// businessErrors 可预期的业务错误，不记录 Error 日志
var businessErrors = []error{
	ErrMemberNotFound,
	ErrRolePeriodNotFound,
	ErrInvalidRole,
	ErrStartDateRequired,
	ErrDuplicateName,
	ErrNameRequired,
	ErrBossNotFound,
	ErrBossInUse,
	ErrInvalidBossType,
	ErrLootItemNotFound,
	ErrInvalidStatus,
	ErrParticipantNotFound,
	ErrInvalidWeekKey,
	pkgerrors.ErrOptimisticLock,
}

func isBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publishEvent 事件在事务提交后投递，失败只记录日志
func publishEvent(ctx context.Context, pub events.Publisher, logger *zap.Logger, e events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, e); err != nil {
		logger.Warn("领域事件投递失败",
			zap.String("type", string(e.Type)),
			zap.String("key", e.Key),
			zap.Error(err),
		)
	}
}
