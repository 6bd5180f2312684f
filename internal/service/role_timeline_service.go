package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/pkg/events"
)

// ── 角色时间线业务错误 ──

var (
	ErrMemberNotFound     = errors.New("成员不存在")
	ErrRolePeriodNotFound = errors.New("角色有效期不存在")
	ErrInvalidRole        = errors.New("角色无效，应为 GUILD_MASTER / CORE / MEMBER")
	ErrStartDateRequired  = errors.New("开始时间不能为空")
)

// periodCloseGap 追加新有效期时，旧的开放有效期结束于新起点前 1ms
const periodCloseGap = time.Millisecond

// RoleChange role.changed 事件载荷
type RoleChange struct {
	MemberID  string     `json:"member_id"`
	Role      model.Role `json:"role"`
	StartDate time.Time  `json:"start_date"`
	Reason    string     `json:"reason,omitempty"`
}

// RoleTimelineService 角色时间线业务接口
type RoleTimelineService interface {
	RoleAt(ctx context.Context, memberID string, at time.Time) (model.Role, bool, error)
	CurrentRole(ctx context.Context, memberID string) (model.Role, bool, error)
	History(ctx context.Context, memberID string) (*dto.RoleHistoryResponse, error)
	AddPeriod(ctx context.Context, memberID string, req *dto.AddRolePeriodRequest) (*dto.RolePeriodResponse, error)
	UpdatePeriod(ctx context.Context, periodID string, req *dto.UpdateRolePeriodRequest) (*dto.RolePeriodResponse, error)
	DeletePeriod(ctx context.Context, periodID string) error
	Overlaps(ctx context.Context, memberID string) ([]dto.RoleOverlapResponse, error)
	// InitializeHistory 为没有任何有效期的成员补建自加入时刻开始的开放有效期
	InitializeHistory(ctx context.Context) (*dto.InitHistoryResponse, error)
}

type roleTimelineService struct {
	repo      *repository.Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewRoleTimelineService 创建 RoleTimelineService 实例
func NewRoleTimelineService(repo *repository.Repository, publisher events.Publisher, logger *zap.Logger) RoleTimelineService {
	return &roleTimelineService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── RoleAt ──────────────────────

func (s *roleTimelineService) RoleAt(ctx context.Context, memberID string, at time.Time) (model.Role, bool, error) {
	if _, err := s.getMember(ctx, s.repo, memberID); err != nil {
		return "", false, err
	}
	periods, err := s.repo.RolePeriod.ListByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("查询角色有效期失败", zap.String("member_id", memberID), zap.Error(err))
		return "", false, err
	}
	role, ok := ResolveRole(periods, at)
	return role, ok, nil
}

func (s *roleTimelineService) CurrentRole(ctx context.Context, memberID string) (model.Role, bool, error) {
	return s.RoleAt(ctx, memberID, s.now())
}

// ────────────────────── History ──────────────────────

func (s *roleTimelineService) History(ctx context.Context, memberID string) (*dto.RoleHistoryResponse, error) {
	if _, err := s.getMember(ctx, s.repo, memberID); err != nil {
		return nil, err
	}
	periods, err := s.repo.RolePeriod.ListByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("查询角色有效期失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	resp := &dto.RoleHistoryResponse{
		MemberID: memberID,
		Periods:  make([]dto.RolePeriodResponse, 0, len(periods)),
	}
	if role, ok := ResolveRole(periods, s.now()); ok {
		r := string(role)
		resp.CurrentRole = &r
	}
	for i := range periods {
		resp.Periods = append(resp.Periods, toRolePeriodResponse(&periods[i]))
	}
	return resp, nil
}

// ────────────────────── AddPeriod ──────────────────────

func (s *roleTimelineService) AddPeriod(ctx context.Context, memberID string, req *dto.AddRolePeriodRequest) (*dto.RolePeriodResponse, error) {
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if req.StartDate == nil {
		return nil, ErrStartDateRequired
	}

	now := s.now()
	var period *model.RolePeriod
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := s.getMember(ctx, tx, memberID); err != nil {
			return err
		}
		var err error
		period, err = addRolePeriod(ctx, tx, memberID, role, *req.StartDate, req.EndDate, req.Reason, now)
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("追加角色有效期失败", zap.String("member_id", memberID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("追加角色有效期",
		zap.String("member_id", memberID),
		zap.String("role", string(role)),
		zap.Time("start_date", period.StartDate),
	)
	s.publish(ctx, events.New(events.RoleChanged, memberID, RoleChange{
		MemberID:  memberID,
		Role:      role,
		StartDate: period.StartDate,
		Reason:    period.Reason,
	}))

	resp := toRolePeriodResponse(period)
	return &resp, nil
}

// ────────────────────── UpdatePeriod ──────────────────────

func (s *roleTimelineService) UpdatePeriod(ctx context.Context, periodID string, req *dto.UpdateRolePeriodRequest) (*dto.RolePeriodResponse, error) {
	if req.Role != nil && !model.Role(*req.Role).Valid() {
		return nil, ErrInvalidRole
	}

	var period *model.RolePeriod
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		p, err := tx.RolePeriod.GetByID(ctx, periodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRolePeriodNotFound
			}
			return err
		}

		if req.Role != nil {
			p.Role = model.Role(*req.Role)
		}
		if req.StartDate != nil {
			p.StartDate = req.StartDate.UTC()
		}
		if req.ClearEndDate {
			p.EndDate = nil
		} else if req.EndDate != nil {
			end := req.EndDate.UTC()
			p.EndDate = &end
		}
		if req.Reason != nil {
			p.Reason = *req.Reason
		}

		if err := tx.RolePeriod.Update(ctx, p); err != nil {
			return err
		}
		period = p
		_, _, err = refreshMemberRole(ctx, tx, p.MemberID, s.now())
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("修改角色有效期失败", zap.String("period_id", periodID), zap.Error(err))
		}
		return nil, err
	}

	resp := toRolePeriodResponse(period)
	return &resp, nil
}

// ────────────────────── DeletePeriod ──────────────────────

func (s *roleTimelineService) DeletePeriod(ctx context.Context, periodID string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		p, err := tx.RolePeriod.GetByID(ctx, periodID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRolePeriodNotFound
			}
			return err
		}
		if err := tx.RolePeriod.Delete(ctx, periodID); err != nil {
			return err
		}
		// 删除后若无有效期覆盖当前时刻，角色缓存保持原值
		_, _, err = refreshMemberRole(ctx, tx, p.MemberID, s.now())
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("删除角色有效期失败", zap.String("period_id", periodID), zap.Error(err))
		}
		return err
	}
	return nil
}

// ────────────────────── Overlaps ──────────────────────

func (s *roleTimelineService) Overlaps(ctx context.Context, memberID string) ([]dto.RoleOverlapResponse, error) {
	if _, err := s.getMember(ctx, s.repo, memberID); err != nil {
		return nil, err
	}
	periods, err := s.repo.RolePeriod.ListByMember(ctx, memberID)
	if err != nil {
		s.logger.Error("查询角色有效期失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}

	pairs := FindOverlaps(periods)
	result := make([]dto.RoleOverlapResponse, 0, len(pairs))
	for i := range pairs {
		result = append(result, dto.RoleOverlapResponse{
			First:  toRolePeriodResponse(&pairs[i].First),
			Second: toRolePeriodResponse(&pairs[i].Second),
		})
	}
	return result, nil
}

// ────────────────────── InitializeHistory ──────────────────────

func (s *roleTimelineService) InitializeHistory(ctx context.Context) (*dto.InitHistoryResponse, error) {
	var initialized int
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		members, err := tx.RolePeriod.ListMembersWithoutHistory(ctx)
		if err != nil {
			return err
		}
		for _, m := range members {
			p := &model.RolePeriod{
				MemberID:  m.MemberID,
				Role:      m.Role,
				StartDate: m.CreatedAt.UTC(),
				Reason:    "Initial role assignment",
			}
			if err := tx.RolePeriod.Create(ctx, p); err != nil {
				return fmt.Errorf("成员 %s: %w", m.Name, err)
			}
			initialized++
		}
		return nil
	})
	if err != nil {
		s.logger.Error("补建初始角色有效期失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("补建初始角色有效期完成", zap.Int("initialized", initialized))
	return &dto.InitHistoryResponse{Initialized: initialized}, nil
}

// ── 内部辅助方法 ──

func (s *roleTimelineService) getMember(ctx context.Context, repo *repository.Repository, memberID string) (*model.Member, error) {
	m, err := repo.Member.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("查询成员失败", zap.String("member_id", memberID), zap.Error(err))
		return nil, err
	}
	return m, nil
}

func (s *roleTimelineService) publish(ctx context.Context, e events.Event) {
	publishEvent(ctx, s.publisher, s.logger, e)
}

// addRolePeriod 在事务 tx 中追加有效期
// start 不晚于 now 时，成员所有开放有效期结束于 start-1ms；之后按 now 刷新角色缓存
func addRolePeriod(
	ctx context.Context,
	tx *repository.Repository,
	memberID string,
	role model.Role,
	start time.Time,
	end *time.Time,
	reason string,
	now time.Time,
) (*model.RolePeriod, error) {
	start = start.UTC()
	if !start.After(now) {
		if _, err := tx.RolePeriod.CloseOpen(ctx, memberID, start.Add(-periodCloseGap)); err != nil {
			return nil, err
		}
	}

	p := &model.RolePeriod{
		MemberID:  memberID,
		Role:      role,
		StartDate: start,
		Reason:    reason,
	}
	if end != nil {
		e := end.UTC()
		p.EndDate = &e
	}
	if err := tx.RolePeriod.Create(ctx, p); err != nil {
		return nil, err
	}

	if _, _, err := refreshMemberRole(ctx, tx, memberID, now); err != nil {
		return nil, err
	}
	return p, nil
}

// refreshMemberRole 按 now 重新解析角色并写入成员缓存；解析不到时不写入
func refreshMemberRole(ctx context.Context, tx *repository.Repository, memberID string, now time.Time) (model.Role, bool, error) {
	periods, err := tx.RolePeriod.ListByMember(ctx, memberID)
	if err != nil {
		return "", false, err
	}
	role, ok := ResolveRole(periods, now)
	if !ok {
		return "", false, nil
	}
	if err := tx.Member.UpdateRole(ctx, memberID, role); err != nil {
		return "", false, err
	}
	return role, true, nil
}

func toRolePeriodResponse(p *model.RolePeriod) dto.RolePeriodResponse {
	return dto.RolePeriodResponse{
		ID:        p.PeriodID,
		MemberID:  p.MemberID,
		Role:      string(p.Role),
		StartDate: dto.FormatTime(p.StartDate),
		EndDate:   dto.FormatTimePtr(p.EndDate),
		Reason:    p.Reason,
		CreatedAt: dto.FormatTime(p.CreatedAt),
	}
}
