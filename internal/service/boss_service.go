package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/model"
	"guild-ledger/backend/internal/repository"
	pkgerrors "guild-ledger/backend/pkg/errors"
	"guild-ledger/backend/pkg/events"
)

// ── Boss 模块业务错误 ──

var (
	ErrBossNotFound    = errors.New("Boss 不存在")
	ErrBossInUse       = errors.New("该 Boss 仍有关联的战利品，无法删除")
	ErrInvalidBossType = errors.New("Boss 类型无效，应为 NORMAL / FIXED")
)

// BossKill boss.killed 事件载荷
type BossKill struct {
	BossID    string     `json:"boss_id"`
	Name      string     `json:"name"`
	KilledAt  time.Time  `json:"killed_at"`
	NextSpawn *time.Time `json:"next_spawn"`
}

// BossService Boss 业务接口
type BossService interface {
	List(ctx context.Context) ([]dto.BossResponse, error)
	Create(ctx context.Context, req *dto.CreateBossRequest) (*dto.BossResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateBossRequest) (*dto.BossResponse, error)
	Kill(ctx context.Context, id string, req *dto.KillBossRequest) (*dto.BossResponse, error)
	Delete(ctx context.Context, id string) error
	// Calendar 返回 iCalendar 格式的刷新日历
	Calendar(ctx context.Context) ([]byte, error)
}

type bossService struct {
	repo      *repository.Repository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBossService 创建 BossService 实例
func NewBossService(repo *repository.Repository, publisher events.Publisher, logger *zap.Logger) BossService {
	return &bossService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── List ──────────────────────

func (s *bossService) List(ctx context.Context) ([]dto.BossResponse, error) {
	bosses, err := s.repo.Boss.List(ctx)
	if err != nil {
		s.logger.Error("列出 Boss 失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.BossResponse, 0, len(bosses))
	for i := range bosses {
		result = append(result, toBossResponse(&bosses[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *bossService) Create(ctx context.Context, req *dto.CreateBossRequest) (*dto.BossResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	bossType := model.BossTypeNormal
	if req.Type != "" {
		bossType = model.BossType(req.Type)
		if !bossType.Valid() {
			return nil, ErrInvalidBossType
		}
	}

	if err := ensureBossNameFree(ctx, s.repo, name); err != nil {
		if !isBusinessError(err) {
			s.logger.Error("查询 Boss 失败", zap.String("name", name), zap.Error(err))
		}
		return nil, err
	}

	boss := &model.Boss{
		Name:           name,
		Type:           bossType,
		RespawnMinutes: req.RespawnMinutes,
	}
	if err := s.repo.Boss.Create(ctx, boss); err != nil {
		s.logger.Error("创建 Boss 失败", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	resp := toBossResponse(boss)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *bossService) Update(ctx context.Context, id string, req *dto.UpdateBossRequest) (*dto.BossResponse, error) {
	boss, err := s.getBoss(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		if name != boss.Name {
			if err := ensureBossNameFree(ctx, s.repo, name); err != nil {
				return nil, err
			}
			boss.Name = name
		}
	}
	if req.Type != nil {
		t := model.BossType(*req.Type)
		if !t.Valid() {
			return nil, ErrInvalidBossType
		}
		boss.Type = t
	}
	if req.RespawnMinutes != nil {
		boss.RespawnMinutes = *req.RespawnMinutes
	}
	boss.Version = req.Version

	if err := s.repo.Boss.Update(ctx, boss); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新 Boss 失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	resp := toBossResponse(boss)
	return &resp, nil
}

// ────────────────────── Kill ──────────────────────

func (s *bossService) Kill(ctx context.Context, id string, req *dto.KillBossRequest) (*dto.BossResponse, error) {
	boss, err := s.getBoss(ctx, id)
	if err != nil {
		return nil, err
	}

	killedAt := s.now().UTC()
	if req.KilledAt != nil {
		killedAt = req.KilledAt.UTC()
	}
	boss.LastKilledAt = &killedAt
	boss.Version = req.Version

	if err := s.repo.Boss.Update(ctx, boss); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("记录 Boss 击杀失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.New(events.BossKilled, boss.BossID, BossKill{
		BossID:    boss.BossID,
		Name:      boss.Name,
		KilledAt:  killedAt,
		NextSpawn: boss.NextSpawn(),
	}))

	resp := toBossResponse(boss)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *bossService) Delete(ctx context.Context, id string) error {
	if _, err := s.getBoss(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.Loot.CountByBoss(ctx, id)
	if err != nil {
		s.logger.Error("统计 Boss 战利品失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrBossInUse
	}

	if err := s.repo.Boss.Delete(ctx, id); err != nil {
		s.logger.Error("删除 Boss 失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Calendar ──────────────────────

func (s *bossService) Calendar(ctx context.Context) ([]byte, error) {
	bosses, err := s.repo.Boss.List(ctx)
	if err != nil {
		s.logger.Error("列出 Boss 失败", zap.Error(err))
		return nil, err
	}

	return []byte(BuildBossCalendar(bosses, s.now()).Serialize()), nil
}

// ── 内部辅助方法 ──

func (s *bossService) getBoss(ctx context.Context, id string) (*model.Boss, error) {
	boss, err := s.repo.Boss.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBossNotFound
		}
		s.logger.Error("查询 Boss 失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return boss, nil
}

func ensureBossNameFree(ctx context.Context, repo *repository.Repository, name string) error {
	_, err := repo.Boss.GetByName(ctx, name)
	switch {
	case err == nil:
		return ErrDuplicateName
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return err
	}
}

func toBossResponse(b *model.Boss) dto.BossResponse {
	return dto.BossResponse{
		ID:             b.BossID,
		Name:           b.Name,
		Type:           string(b.Type),
		RespawnMinutes: b.RespawnMinutes,
		LastKilledAt:   dto.FormatTimePtr(b.LastKilledAt),
		NextSpawn:      dto.FormatTimePtr(b.NextSpawn()),
		Version:        b.Version,
		CreatedAt:      dto.FormatTime(b.CreatedAt),
	}
}
