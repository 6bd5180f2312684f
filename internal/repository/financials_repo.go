package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guild-ledger/backend/internal/model"
)

// FinancialsRepository 公会财务快照数据访问接口
type FinancialsRepository interface {
	// Get 读取快照；不存在时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context) (*model.GuildFinancials, error)
	// GetForUpdate 在事务内读取并锁定快照行（PostgreSQL 行锁）
	// 行不存在时先写入全零快照，保证首次重算也有可锁定的行
	GetForUpdate(ctx context.Context) (*model.GuildFinancials, error)
	// Upsert 整体覆盖快照
	Upsert(ctx context.Context, f *model.GuildFinancials) error
}

type financialsRepo struct {
	db *gorm.DB
}

// NewFinancialsRepo 创建 FinancialsRepository 实例
func NewFinancialsRepo(db *gorm.DB) FinancialsRepository {
	return &financialsRepo{db: db}
}

func (r *financialsRepo) Get(ctx context.Context) (*model.GuildFinancials, error) {
	var f model.GuildFinancials
	err := r.db.WithContext(ctx).
		Where("id = ?", model.GuildFinancialsKey).
		Take(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *financialsRepo) GetForUpdate(ctx context.Context) (*model.GuildFinancials, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&model.GuildFinancials{ID: model.GuildFinancialsKey}).Error
	if err != nil {
		return nil, err
	}

	var f model.GuildFinancials
	db := r.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err = db.Where("id = ?", model.GuildFinancialsKey).Take(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *financialsRepo) Upsert(ctx context.Context, f *model.GuildFinancials) error {
	f.ID = model.GuildFinancialsKey
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_loot_value", "total_distributed", "guild_fund", "admin_fee", "updated_at",
			}),
		}).
		Create(f).Error
}
