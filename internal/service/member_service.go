package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	"guild-ledger/backend/pkg/events"
)

// ── 成员模块业务错误 ──

var (
	ErrDuplicateName = errors.New("名称已存在")
	ErrNameRequired  = errors.New("名称不能为空")
)

const initialMemberReason = "Initial member creation"

// MemberService 成员业务接口
type MemberService interface {
	List(ctx context.Context) ([]dto.MemberResponse, error)
	GetByID(ctx context.Context, id string) (*dto.MemberResponse, error)
	Create(ctx context.Context, req *dto.CreateMemberRequest) (*dto.MemberResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error)
	Delete(ctx context.Context, id string) error
}

type memberService struct {
	repo      *repository.Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewMemberService 创建 MemberService 实例
func NewMemberService(repo *repository.Repository, publisher events.Publisher, logger *zap.Logger) MemberService {
	return &memberService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── List ──────────────────────

func (s *memberService) List(ctx context.Context) ([]dto.MemberResponse, error) {
	members, err := s.repo.Member.List(ctx)
	if err != nil {
		s.logger.Error("列出成员失败", zap.Error(err))
		return nil, err
	}
	periods, err := s.repo.RolePeriod.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询角色有效期失败", zap.Error(err))
		return nil, err
	}

	idx := NewRoleIndex(periods)
	now := s.now()
	result := make([]dto.MemberResponse, 0, len(members))
	for i := range members {
		result = append(result, toMemberResponse(&members[i], idx, now))
	}
	return result, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *memberService) GetByID(ctx context.Context, id string) (*dto.MemberResponse, error) {
	m, err := s.repo.Member.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		s.logger.Error("查询成员失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.withCurrentRole(ctx, s.repo, m)
}

// ────────────────────── Create ──────────────────────

func (s *memberService) Create(ctx context.Context, req *dto.CreateMemberRequest) (*dto.MemberResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	role := model.Role(req.Role)
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	now := s.now()
	start := now
	if req.StartDate != nil {
		start = *req.StartDate
	}
	reason := req.Reason
	if reason == "" {
		reason = initialMemberReason
	}

	var member *model.Member
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		member, err = createMember(ctx, tx, name, role, start, reason, now)
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("创建成员失败", zap.String("name", name), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("创建成员", zap.String("member_id", member.MemberID), zap.String("role", string(role)))
	publishEvent(ctx, s.publisher, s.logger, events.New(events.RoleChanged, member.MemberID, RoleChange{
		MemberID:  member.MemberID,
		Role:      role,
		StartDate: start.UTC(),
		Reason:    reason,
	}))
	return s.withCurrentRole(ctx, s.repo, member)
}

// ────────────────────── Update ──────────────────────

func (s *memberService) Update(ctx context.Context, id string, req *dto.UpdateMemberRequest) (*dto.MemberResponse, error) {
	var newRole model.Role
	if req.Role != nil {
		newRole = model.Role(*req.Role)
		if !newRole.Valid() {
			return nil, ErrInvalidRole
		}
	}

	now := s.now()
	var (
		member      *model.Member
		roleChanged bool
		reason      string
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		m, err := tx.Member.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMemberNotFound
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrNameRequired
			}
			if name != m.Name {
				if err := ensureMemberNameFree(ctx, tx, name); err != nil {
					return err
				}
				m.Name = name
			}
		}
		if req.PromotionDate != nil {
			m.PromotionDate = req.PromotionDate
		}
		if req.DemotionDate != nil {
			m.DemotionDate = req.DemotionDate
		}
		if err := tx.Member.Update(ctx, m); err != nil {
			return err
		}

		if req.Role != nil && newRole != m.Role {
			reason = req.Reason
			if reason == "" {
				reason = fmt.Sprintf("Role changed to %s", newRole)
			}
			if _, err := addRolePeriod(ctx, tx, m.MemberID, newRole, now, nil, reason, now); err != nil {
				return err
			}
			roleChanged = true
		}

		member, err = tx.Member.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("更新成员失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	if roleChanged {
		s.logger.Info("成员角色变更", zap.String("member_id", id), zap.String("role", string(newRole)))
		publishEvent(ctx, s.publisher, s.logger, events.New(events.RoleChanged, id, RoleChange{
			MemberID:  id,
			Role:      newRole,
			StartDate: now.UTC(),
			Reason:    reason,
		}))
	}
	return s.withCurrentRole(ctx, s.repo, member)
}

// ────────────────────── Delete ──────────────────────

func (s *memberService) Delete(ctx context.Context, id string) error {
	rows, err := s.repo.Member.Delete(ctx, id)
	if err != nil {
		s.logger.Error("删除成员失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if rows == 0 {
		return ErrMemberNotFound
	}
	s.logger.Info("删除成员", zap.String("member_id", id))
	return nil
}

// ── 内部辅助方法 ──

func (s *memberService) withCurrentRole(ctx context.Context, repo *repository.Repository, m *model.Member) (*dto.MemberResponse, error) {
	periods, err := repo.RolePeriod.ListByMember(ctx, m.MemberID)
	if err != nil {
		s.logger.Error("查询角色有效期失败", zap.String("member_id", m.MemberID), zap.Error(err))
		return nil, err
	}
	resp := toMemberResponse(m, RoleIndex{m.MemberID: periods}, s.now())
	return &resp, nil
}

// createMember 在事务 tx 中创建成员并写入初始有效期
func createMember(
	ctx context.Context,
	tx *repository.Repository,
	name string,
	role model.Role,
	start time.Time,
	reason string,
	now time.Time,
) (*model.Member, error) {
	if err := ensureMemberNameFree(ctx, tx, name); err != nil {
		return nil, err
	}
	m := &model.Member{Name: name, Role: role}
	if err := tx.Member.Create(ctx, m); err != nil {
		return nil, err
	}
	if _, err := addRolePeriod(ctx, tx, m.MemberID, role, start, nil, reason, now); err != nil {
		return nil, err
	}
	return m, nil
}

func ensureMemberNameFree(ctx context.Context, tx *repository.Repository, name string) error {
	_, err := tx.Member.GetByName(ctx, name)
	switch {
	case err == nil:
		return ErrDuplicateName
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}

// toMemberResponse CurrentRole 由有效期解析，解析不到时回退角色缓存
func toMemberResponse(m *model.Member, idx RoleIndex, now time.Time) dto.MemberResponse {
	current := m.Role
	if role, ok := idx.RoleAt(m.MemberID, now); ok {
		current = role
	}
	return dto.MemberResponse{
		ID:            m.MemberID,
		Name:          m.Name,
		Role:          string(m.Role),
		CurrentRole:   string(current),
		PromotionDate: dto.FormatTimePtr(m.PromotionDate),
		DemotionDate:  dto.FormatTimePtr(m.DemotionDate),
		CreatedAt:     dto.FormatTime(m.CreatedAt),
		UpdatedAt:     dto.FormatTime(m.UpdatedAt),
	}
}
