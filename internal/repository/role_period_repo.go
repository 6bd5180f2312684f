package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"guild-ledger/backend/internal/model"
)

// RolePeriodRepository 角色有效期数据访问接口
type RolePeriodRepository interface {
	Create(ctx context.Context, period *model.RolePeriod) error
	GetByID(ctx context.Context, id string) (*model.RolePeriod, error)
	// ListByMember 按 start_date 升序返回成员的全部有效期
	ListByMember(ctx context.Context, memberID string) ([]model.RolePeriod, error)
	// ListAll 按 (member_id, start_date) 升序返回全部有效期
	ListAll(ctx context.Context) ([]model.RolePeriod, error)
	// CloseOpen 将成员所有未结束的有效期结束于 end，返回受影响行数
	CloseOpen(ctx context.Context, memberID string, end time.Time) (int64, error)
	Update(ctx context.Context, period *model.RolePeriod) error
	Delete(ctx context.Context, id string) error
	// ListMembersWithoutHistory 返回没有任何有效期的成员
	ListMembersWithoutHistory(ctx context.Context) ([]model.Member, error)
}

type rolePeriodRepo struct {
	db *gorm.DB
}

// NewRolePeriodRepo 创建 RolePeriodRepository 实例
func NewRolePeriodRepo(db *gorm.DB) RolePeriodRepository {
	return &rolePeriodRepo{db: db}
}

func (r *rolePeriodRepo) Create(ctx context.Context, period *model.RolePeriod) error {
	return r.db.WithContext(ctx).Create(period).Error
}

func (r *rolePeriodRepo) GetByID(ctx context.Context, id string) (*model.RolePeriod, error) {
	var p model.RolePeriod
	err := r.db.WithContext(ctx).Where("period_id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *rolePeriodRepo) ListByMember(ctx context.Context, memberID string) ([]model.RolePeriod, error) {
	var periods []model.RolePeriod
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("start_date ASC, created_at ASC").
		Find(&periods).Error
	return periods, err
}

func (r *rolePeriodRepo) ListAll(ctx context.Context) ([]model.RolePeriod, error) {
	var periods []model.RolePeriod
	err := r.db.WithContext(ctx).
		Order("member_id ASC, start_date ASC, created_at ASC").
		Find(&periods).Error
	return periods, err
}

func (r *rolePeriodRepo) CloseOpen(ctx context.Context, memberID string, end time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RolePeriod{}).
		Where("member_id = ? AND end_date IS NULL", memberID).
		Update("end_date", end)
	return result.RowsAffected, result.Error
}

func (r *rolePeriodRepo) Update(ctx context.Context, period *model.RolePeriod) error {
	// Select 显式列出字段，允许 end_date 被清空为 NULL
	return r.db.WithContext(ctx).
		Model(period).
		Select("role", "start_date", "end_date", "reason").
		Updates(period).Error
}

func (r *rolePeriodRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("period_id = ?", id).
		Delete(&model.RolePeriod{}).Error
}

func (r *rolePeriodRepo) ListMembersWithoutHistory(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM member_role_periods p WHERE p.member_id = members.member_id)").
		Order("created_at ASC, member_id ASC").
		Find(&members).Error
	return members, err
}
