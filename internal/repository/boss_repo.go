package repository

import (
	"context"

	"gorm.io/gorm"

	"guild-ledger/backend/internal/model"
	pkgerrors "guild-ledger/backend/pkg/errors"
)

// BossRepository Boss 数据访问接口
type BossRepository interface {
	Create(ctx context.Context, boss *model.Boss) error
	GetByID(ctx context.Context, id string) (*model.Boss, error)
	GetByName(ctx context.Context, name string) (*model.Boss, error)
	List(ctx context.Context) ([]model.Boss, error)
	// Update 基于 version 的乐观锁更新，冲突时返回 ErrOptimisticLock
	Update(ctx context.Context, boss *model.Boss) error
	Delete(ctx context.Context, id string) error
}

type bossRepo struct {
	db *gorm.DB
}

// NewBossRepo 创建 BossRepository 实例
func NewBossRepo(db *gorm.DB) BossRepository {
	return &bossRepo{db: db}
}

func (r *bossRepo) Create(ctx context.Context, boss *model.Boss) error {
	if boss.Version == 0 {
		boss.Version = 1
	}
	return r.db.WithContext(ctx).Create(boss).Error
}

func (r *bossRepo) GetByID(ctx context.Context, id string) (*model.Boss, error) {
	var b model.Boss
	err := r.db.WithContext(ctx).Where("boss_id = ?", id).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bossRepo) GetByName(ctx context.Context, name string) (*model.Boss, error) {
	var b model.Boss
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bossRepo) List(ctx context.Context) ([]model.Boss, error) {
	var bosses []model.Boss
	err := r.db.WithContext(ctx).Order("name ASC").Find(&bosses).Error
	return bosses, err
}

func (r *bossRepo) Update(ctx context.Context, boss *model.Boss) error {
	oldVersion := boss.Version
	result := r.db.WithContext(ctx).
		Model(&model.Boss{}).
		Where("boss_id = ? AND version = ?", boss.BossID, oldVersion).
		Updates(map[string]interface{}{
			"name":            boss.Name,
			"type":            boss.Type,
			"respawn_minutes": boss.RespawnMinutes,
			"last_killed_at":  boss.LastKilledAt,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	boss.Version = oldVersion + 1
	return nil
}

func (r *bossRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("boss_id = ?", id).
		Delete(&model.Boss{}).Error
}
