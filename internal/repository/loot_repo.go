package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"guild-ledger/backend/internal/model"
)

// LootFilter 战利品列表筛选条件
type LootFilter struct {
	// Search 同时匹配物品名、Boss 名与参与者名（大小写不敏感）
	Search string
	Status model.LootStatus
	Offset int
	Limit  int
}

// StatusTotal 按状态汇总
type StatusTotal struct {
	Status     model.LootStatus `json:"status"`
	ItemCount  int64            `json:"item_count"`
	TotalValue float64          `json:"total_value"`
}

// LootRepository 战利品与参与记录数据访问接口
type LootRepository interface {
	// Create 创建物品，Participations 一并写入
	Create(ctx context.Context, item *model.LootItem) error
	GetByID(ctx context.Context, id string) (*model.LootItem, error)
	List(ctx context.Context, filter LootFilter) ([]model.LootItem, int64, error)
	// ListByStatus 返回指定状态的物品及其参与记录，按获得时间升序
	ListByStatus(ctx context.Context, status model.LootStatus) ([]model.LootItem, error)
	// ListDetailed 返回全部物品及 Boss、参与者、工资，按获得时间倒序
	ListDetailed(ctx context.Context) ([]model.LootItem, error)
	ListRecent(ctx context.Context, statuses []model.LootStatus, limit int) ([]model.LootItem, error)
	Update(ctx context.Context, item *model.LootItem) error
	UpdateStatus(ctx context.Context, id string, status model.LootStatus) (int64, error)
	// ReplaceParticipations 删除旧参与记录后写入新的成员集合
	ReplaceParticipations(ctx context.Context, itemID string, memberIDs []string) error
	Delete(ctx context.Context, id string) (int64, error)
	CountByBoss(ctx context.Context, bossID string) (int64, error)
	// ParticipantIDsBetween 返回获得时间落在 [from, to] 内的物品的去重参与者
	ParticipantIDsBetween(ctx context.Context, from, to time.Time) ([]string, error)
	SumByStatus(ctx context.Context) ([]StatusTotal, error)
}

type lootRepo struct {
	db *gorm.DB
}

// NewLootRepo 创建 LootRepository 实例
func NewLootRepo(db *gorm.DB) LootRepository {
	return &lootRepo{db: db}
}

func (r *lootRepo) Create(ctx context.Context, item *model.LootItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *lootRepo) GetByID(ctx context.Context, id string) (*model.LootItem, error) {
	var item model.LootItem
	err := r.db.WithContext(ctx).
		Preload("Boss").
		Preload("Participations.Member").
		Preload("Salaries.Member").
		Where("loot_item_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *lootRepo) List(ctx context.Context, filter LootFilter) ([]model.LootItem, int64, error) {
	var items []model.LootItem
	var total int64

	db := r.db.WithContext(ctx).Model(&model.LootItem{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where(`(LOWER(loot_items.name) LIKE ?
			OR loot_items.boss_id IN (SELECT b.boss_id FROM bosses b WHERE LOWER(b.name) LIKE ?)
			OR loot_items.loot_item_id IN (
				SELECT lp.loot_item_id FROM loot_participations lp
				JOIN members m ON m.member_id = lp.member_id
				WHERE LOWER(m.name) LIKE ?))`, like, like, like)
	}
	if filter.Status != "" {
		db = db.Where("loot_items.status = ?", filter.Status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.
		Preload("Boss").
		Preload("Participations.Member").
		Preload("Salaries.Member").
		Order("loot_items.date_acquired DESC, loot_items.loot_item_id ASC")
	if filter.Limit > 0 {
		q = q.Offset(filter.Offset).Limit(filter.Limit)
	}
	err := q.Find(&items).Error
	return items, total, err
}

func (r *lootRepo) ListByStatus(ctx context.Context, status model.LootStatus) ([]model.LootItem, error) {
	var items []model.LootItem
	err := r.db.WithContext(ctx).
		Preload("Participations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, participation_id ASC")
		}).
		Where("status = ?", status).
		Order("date_acquired ASC, loot_item_id ASC").
		Find(&items).Error
	return items, err
}

func (r *lootRepo) ListDetailed(ctx context.Context) ([]model.LootItem, error) {
	var items []model.LootItem
	err := r.db.WithContext(ctx).
		Preload("Boss").
		Preload("Participations.Member").
		Preload("Salaries.Member").
		Order("date_acquired DESC, loot_item_id ASC").
		Find(&items).Error
	return items, err
}

func (r *lootRepo) ListRecent(ctx context.Context, statuses []model.LootStatus, limit int) ([]model.LootItem, error) {
	var items []model.LootItem
	err := r.db.WithContext(ctx).
		Preload("Boss").
		Where("status IN ?", statuses).
		Order("updated_at DESC, loot_item_id ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (r *lootRepo) Update(ctx context.Context, item *model.LootItem) error {
	return r.db.WithContext(ctx).
		Model(&model.LootItem{}).
		Where("loot_item_id = ?", item.LootItemID).
		Updates(map[string]interface{}{
			"name":          item.Name,
			"value":         item.Value,
			"date_acquired": item.DateAcquired,
			"status":        item.Status,
			"boss_id":       item.BossID,
		}).Error
}

func (r *lootRepo) UpdateStatus(ctx context.Context, id string, status model.LootStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.LootItem{}).
		Where("loot_item_id = ?", id).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *lootRepo) ReplaceParticipations(ctx context.Context, itemID string, memberIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loot_item_id = ?", itemID).Delete(&model.Participation{}).Error; err != nil {
			return err
		}
		if len(memberIDs) == 0 {
			return nil
		}
		rows := make([]model.Participation, 0, len(memberIDs))
		for _, id := range memberIDs {
			rows = append(rows, model.Participation{LootItemID: itemID, MemberID: id})
		}
		return tx.Create(&rows).Error
	})
}

func (r *lootRepo) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("loot_item_id = ?", id).
		Delete(&model.LootItem{})
	return result.RowsAffected, result.Error
}

func (r *lootRepo) CountByBoss(ctx context.Context, bossID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.LootItem{}).
		Where("boss_id = ?", bossID).
		Count(&n).Error
	return n, err
}

func (r *lootRepo) ParticipantIDsBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Participation{}).
		Joins("JOIN loot_items ON loot_items.loot_item_id = loot_participations.loot_item_id").
		Where("loot_items.date_acquired >= ? AND loot_items.date_acquired <= ?", from, to).
		Distinct().
		Order("loot_participations.member_id ASC").
		Pluck("loot_participations.member_id", &ids).Error
	return ids, err
}

func (r *lootRepo) SumByStatus(ctx context.Context) ([]StatusTotal, error) {
	var totals []StatusTotal
	err := r.db.WithContext(ctx).
		Model(&model.LootItem{}).
		Select("status, COUNT(*) AS item_count, COALESCE(SUM(value), 0) AS total_value").
		Group("status").
		Order("status ASC").
		Scan(&totals).Error
	return totals, err
}
