package repository

import (
	"context"

	"gorm.io/gorm"

	"guild-ledger/backend/internal/model"
)

// salaryBatchSize 批量写入工资时每批的行数
const salaryBatchSize = 500

// ItemSalaryTotal 单件物品的已发放工资合计
type ItemSalaryTotal struct {
	LootItemID string  `json:"loot_item_id"`
	Value      float64 `json:"value"`
	Paid       int64   `json:"paid"`
}

// SalaryRepository 工资数据访问接口
type SalaryRepository interface {
	// DeleteForSold 删除所有属于 SOLD 物品的工资，返回删除行数
	DeleteForSold(ctx context.Context) (int64, error)
	BatchCreate(ctx context.Context, salaries []model.Salary) error
	// ListDetailed 返回全部工资及成员、物品、Boss
	ListDetailed(ctx context.Context) ([]model.Salary, error)
	// SumForSold 返回 SOLD 物品上的工资合计
	SumForSold(ctx context.Context) (int64, error)
	// ItemTotalsForSold 返回每件已有工资的 SOLD 物品的价值与已发工资
	ItemTotalsForSold(ctx context.Context) ([]ItemSalaryTotal, error)
}

type salaryRepo struct {
	db *gorm.DB
}

// NewSalaryRepo 创建 SalaryRepository 实例
func NewSalaryRepo(db *gorm.DB) SalaryRepository {
	return &salaryRepo{db: db}
}

func (r *salaryRepo) soldItemIDs() *gorm.DB {
	return r.db.Model(&model.LootItem{}).
		Select("loot_item_id").
		Where("status = ?", model.LootStatusSold)
}

func (r *salaryRepo) DeleteForSold(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("loot_item_id IN (?)", r.soldItemIDs()).
		Delete(&model.Salary{})
	return result.RowsAffected, result.Error
}

func (r *salaryRepo) BatchCreate(ctx context.Context, salaries []model.Salary) error {
	if len(salaries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&salaries, salaryBatchSize).Error
}

func (r *salaryRepo) ListDetailed(ctx context.Context) ([]model.Salary, error) {
	var salaries []model.Salary
	err := r.db.WithContext(ctx).
		Preload("Member").
		Preload("LootItem.Boss").
		Order("created_at ASC, salary_id ASC").
		Find(&salaries).Error
	return salaries, err
}

func (r *salaryRepo) SumForSold(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Salary{}).
		Where("loot_item_id IN (?)", r.soldItemIDs()).
		Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
		Scan(&total).Error
	return total, err
}

func (r *salaryRepo) ItemTotalsForSold(ctx context.Context) ([]ItemSalaryTotal, error) {
	var totals []ItemSalaryTotal
	err := r.db.WithContext(ctx).
		Table("salaries s").
		Select("s.loot_item_id AS loot_item_id, li.value AS value, CAST(SUM(s.amount) AS BIGINT) AS paid").
		Joins("JOIN loot_items li ON li.loot_item_id = s.loot_item_id").
		Where("li.status = ?", model.LootStatusSold).
		Group("s.loot_item_id, li.value").
		Order("s.loot_item_id ASC").
		Scan(&totals).Error
	return totals, err
}
