package repository

import (
	"context"

	"gorm.io/gorm"

	"guild-ledger/backend/internal/model"
)

// MemberRepository 成员数据访问接口
type MemberRepository interface {
	Create(ctx context.Context, member *model.Member) error
	GetByID(ctx context.Context, id string) (*model.Member, error)
	GetByName(ctx context.Context, name string) (*model.Member, error)
	// List 按 (created_at, member_id) 升序返回全部成员，该顺序决定会长查找的先后
	List(ctx context.Context) ([]model.Member, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Member, error)
	Update(ctx context.Context, member *model.Member) error
	// UpdateRole 仅写入角色缓存列
	UpdateRole(ctx context.Context, id string, role model.Role) error
	Delete(ctx context.Context, id string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type memberRepo struct {
	db *gorm.DB
}

// NewMemberRepo 创建 MemberRepository 实例
func NewMemberRepo(db *gorm.DB) MemberRepository {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepo) GetByID(ctx context.Context, id string) (*model.Member, error) {
	var m model.Member
	err := r.db.WithContext(ctx).Where("member_id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepo) GetByName(ctx context.Context, name string) (*model.Member, error) {
	var m model.Member
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepo) List(ctx context.Context) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Order("created_at ASC, member_id ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Member, error) {
	var members []model.Member
	if len(ids) == 0 {
		return members, nil
	}
	err := r.db.WithContext(ctx).
		Where("member_id IN ?", ids).
		Order("created_at ASC, member_id ASC").
		Find(&members).Error
	return members, err
}

func (r *memberRepo) Update(ctx context.Context, member *model.Member) error {
	return r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("member_id = ?", member.MemberID).
		Updates(map[string]interface{}{
			"name":           member.Name,
			"promotion_date": member.PromotionDate,
			"demotion_date":  member.DemotionDate,
		}).Error
}

func (r *memberRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	return r.db.WithContext(ctx).
		Model(&model.Member{}).
		Where("member_id = ?", id).
		Update("role", role).Error
}

func (r *memberRepo) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("member_id = ?", id).
		Delete(&model.Member{})
	return result.RowsAffected, result.Error
}

func (r *memberRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Member{}).Count(&n).Error
	return n, err
}
