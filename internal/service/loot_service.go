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
)

// ── 战利品模块业务错误 ──

var (
	ErrLootItemNotFound    = errors.New("战利品不存在")
	ErrInvalidStatus       = errors.New("状态无效，应为 PENDING / SOLD / SETTLED")
	ErrParticipantNotFound = errors.New("参与者中包含不存在的成员")
)

const (
	// importDateLayout CSV 日期格式 MM/DD/YYYY，允许省略前导零
	importDateLayout   = "1/2/2006"
	importBossRespawn  = 60
	importMemberReason = "Initial member creation"
)

// LootService 战利品业务接口
type LootService interface {
	List(ctx context.Context, req *dto.LootListRequest) ([]dto.LootItemResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.LootItemResponse, error)
	Create(ctx context.Context, req *dto.CreateLootRequest) (*dto.LootItemResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLootRequest) (*dto.LootItemResponse, error)
	UpdateStatus(ctx context.Context, id string, status string) (*dto.LootItemResponse, error)
	Delete(ctx context.Context, id string) error
	// Import 逐行导入 CSV 数据，单行失败不影响其他行
	Import(ctx context.Context, req *dto.ImportLootRequest) (*dto.ImportLootResponse, error)
}

type lootService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewLootService 创建 LootService 实例，loc 用于解析导入日期
func NewLootService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) LootService {
	if loc == nil {
		loc = time.UTC
	}
	return &lootService{
		repo:   repo,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// ────────────────────── List ──────────────────────

func (s *lootService) List(ctx context.Context, req *dto.LootListRequest) ([]dto.LootItemResponse, int64, error) {
	filter := repository.LootFilter{
		Search: strings.TrimSpace(req.Search),
		Status: model.LootStatus(req.Status),
	}
	if req.Page > 0 || req.PageSize > 0 {
		filter.Offset = req.GetOffset()
		filter.Limit = req.GetPageSize()
	}

	items, total, err := s.repo.Loot.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出战利品失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.LootItemResponse, 0, len(items))
	for i := range items {
		result = append(result, toLootItemResponse(&items[i]))
	}
	return result, total, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *lootService) GetByID(ctx context.Context, id string) (*dto.LootItemResponse, error) {
	item, err := s.getItem(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	resp := toLootItemResponse(item)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *lootService) Create(ctx context.Context, req *dto.CreateLootRequest) (*dto.LootItemResponse, error) {
	status := model.LootStatusPending
	if req.Status != "" {
		status = model.LootStatus(req.Status)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	var itemID string
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := s.ensureBoss(ctx, tx, req.BossID); err != nil {
			return err
		}
		memberIDs, err := s.ensureMembers(ctx, tx, req.ParticipantIDs)
		if err != nil {
			return err
		}

		item := &model.LootItem{
			Name:         name,
			Value:        req.Value,
			DateAcquired: req.DateAcquired.UTC(),
			Status:       status,
			BossID:       req.BossID,
		}
		for _, id := range memberIDs {
			item.Participations = append(item.Participations, model.Participation{MemberID: id})
		}
		if err := tx.Loot.Create(ctx, item); err != nil {
			return err
		}
		itemID = item.LootItemID
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("创建战利品失败", zap.String("name", name), zap.Error(err))
		}
		return nil, err
	}

	return s.GetByID(ctx, itemID)
}

// ────────────────────── Update ──────────────────────

func (s *lootService) Update(ctx context.Context, id string, req *dto.UpdateLootRequest) (*dto.LootItemResponse, error) {
	if req.Status != nil && !model.LootStatus(*req.Status).Valid() {
		return nil, ErrInvalidStatus
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		item, err := s.getItem(ctx, tx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ErrNameRequired
			}
			item.Name = name
		}
		if req.BossID != nil && *req.BossID != item.BossID {
			if err := s.ensureBoss(ctx, tx, *req.BossID); err != nil {
				return err
			}
			item.BossID = *req.BossID
		}
		if req.Value != nil {
			item.Value = *req.Value
		}
		if req.DateAcquired != nil {
			item.DateAcquired = req.DateAcquired.UTC()
		}
		if req.Status != nil {
			item.Status = model.LootStatus(*req.Status)
		}
		if err := tx.Loot.Update(ctx, item); err != nil {
			return err
		}

		if req.ParticipantIDs != nil {
			memberIDs, err := s.ensureMembers(ctx, tx, *req.ParticipantIDs)
			if err != nil {
				return err
			}
			if err := tx.Loot.ReplaceParticipations(ctx, id, memberIDs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("更新战利品失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *lootService) UpdateStatus(ctx context.Context, id string, status string) (*dto.LootItemResponse, error) {
	st := model.LootStatus(status)
	if !st.Valid() {
		return nil, ErrInvalidStatus
	}

	rows, err := s.repo.Loot.UpdateStatus(ctx, id, st)
	if err != nil {
		s.logger.Error("更新战利品状态失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if rows == 0 {
		return nil, ErrLootItemNotFound
	}

	s.logger.Info("战利品状态变更", zap.String("id", id), zap.String("status", status))
	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *lootService) Delete(ctx context.Context, id string) error {
	rows, err := s.repo.Loot.Delete(ctx, id)
	if err != nil {
		s.logger.Error("删除战利品失败", zap.String("id", id), zap.Error(err))
		return err
	}
	if rows == 0 {
		return ErrLootItemNotFound
	}
	return nil
}

// ────────────────────── Import ──────────────────────

func (s *lootService) Import(ctx context.Context, req *dto.ImportLootRequest) (*dto.ImportLootResponse, error) {
	resp := &dto.ImportLootResponse{Errors: []dto.ImportRowError{}}

	for i, row := range req.Rows {
		rowNo := i + 1
		date, err := s.validateRow(row)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.ImportRowError{Row: rowNo, Message: err.Error()})
			continue
		}

		var bossCreated, membersCreated int
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			bossCreated, membersCreated = 0, 0
			boss, created, err := findOrCreateBoss(ctx, tx, strings.TrimSpace(row.BossName))
			if err != nil {
				return err
			}
			if created {
				bossCreated++
			}

			item := &model.LootItem{
				Name:         strings.TrimSpace(row.ItemName),
				Value:        row.ItemValue,
				DateAcquired: date.UTC(),
				Status:       model.LootStatusPending,
				BossID:       boss.BossID,
			}

			seen := make(map[string]bool)
			for _, raw := range row.Participants {
				name := strings.TrimSpace(raw)
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true

				m, created, err := s.findOrCreateMember(ctx, tx, name)
				if err != nil {
					return err
				}
				if created {
					membersCreated++
				}
				item.Participations = append(item.Participations, model.Participation{MemberID: m.MemberID})
			}

			return tx.Loot.Create(ctx, item)
		})
		if err != nil {
			s.logger.Warn("导入行失败", zap.Int("row", rowNo), zap.Error(err))
			resp.Errors = append(resp.Errors, dto.ImportRowError{Row: rowNo, Message: err.Error()})
			continue
		}

		resp.Created++
		resp.BossesCreated += bossCreated
		resp.MembersCreated += membersCreated
	}

	s.logger.Info("战利品导入完成",
		zap.Int("rows", len(req.Rows)),
		zap.Int("created", resp.Created),
		zap.Int("errors", len(resp.Errors)),
	)
	return resp, nil
}

// ── 内部辅助方法 ──

func (s *lootService) validateRow(row dto.ImportLootRow) (time.Time, error) {
	if strings.TrimSpace(row.ItemName) == "" || strings.TrimSpace(row.BossName) == "" ||
		row.ItemValue <= 0 || strings.TrimSpace(row.DateAcquired) == "" {
		return time.Time{}, errors.New("缺少必填字段：物品名、Boss 名、价值、获得日期")
	}
	date, err := time.ParseInLocation(importDateLayout, strings.TrimSpace(row.DateAcquired), s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式无效 %q，应为 MM/DD/YYYY", row.DateAcquired)
	}
	return date, nil
}

func (s *lootService) getItem(ctx context.Context, repo *repository.Repository, id string) (*model.LootItem, error) {
	item, err := repo.Loot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLootItemNotFound
		}
		s.logger.Error("查询战利品失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return item, nil
}

func (s *lootService) ensureBoss(ctx context.Context, tx *repository.Repository, bossID string) error {
	if _, err := tx.Boss.GetByID(ctx, bossID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBossNotFound
		}
		return err
	}
	return nil
}

// ensureMembers 去重并确认所有成员存在
func (s *lootService) ensureMembers(ctx context.Context, tx *repository.Repository, ids []string) ([]string, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return unique, nil
	}

	members, err := tx.Member.ListByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(members) != len(unique) {
		return nil, ErrParticipantNotFound
	}
	return unique, nil
}

func (s *lootService) findOrCreateMember(ctx context.Context, tx *repository.Repository, name string) (*model.Member, bool, error) {
	m, err := tx.Member.GetByName(ctx, name)
	if err == nil {
		return m, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	now := s.now()
	m, err = createMember(ctx, tx, name, model.RoleMember, now, importMemberReason, now)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func findOrCreateBoss(ctx context.Context, tx *repository.Repository, name string) (*model.Boss, bool, error) {
	b, err := tx.Boss.GetByName(ctx, name)
	if err == nil {
		return b, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	b = &model.Boss{
		Name:           name,
		Type:           model.BossTypeNormal,
		RespawnMinutes: importBossRespawn,
	}
	if err := tx.Boss.Create(ctx, b); err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func toLootItemResponse(item *model.LootItem) dto.LootItemResponse {
	resp := dto.LootItemResponse{
		ID:           item.LootItemID,
		Name:         item.Name,
		Value:        item.Value,
		DateAcquired: dto.FormatTime(item.DateAcquired),
		Status:       string(item.Status),
		Participants: make([]dto.ParticipantResponse, 0, len(item.Participations)),
		Salaries:     make([]dto.LootSalaryResponse, 0, len(item.Salaries)),
		CreatedAt:    dto.FormatTime(item.CreatedAt),
	}
	if item.Boss != nil {
		resp.Boss = &dto.BossBrief{ID: item.Boss.BossID, Name: item.Boss.Name}
	}
	for _, p := range item.Participations {
		pr := dto.ParticipantResponse{MemberID: p.MemberID}
		if p.Member != nil {
			pr.Name = p.Member.Name
		}
		resp.Participants = append(resp.Participants, pr)
	}
	for _, sal := range item.Salaries {
		sr := dto.LootSalaryResponse{MemberID: sal.MemberID, Amount: sal.Amount}
		if sal.Member != nil {
			sr.Name = sal.Member.Name
		}
		resp.Salaries = append(resp.Salaries, sr)
	}
	return resp
}
