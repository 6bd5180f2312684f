package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Admin      AdminRepository
	Member     MemberRepository
	RolePeriod RolePeriodRepository
	Boss       BossRepository
	Loot       LootRepository
	Salary     SalaryRepository
	Attendance AttendanceRepository
	Financials FinancialsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Admin:      NewAdminRepo(db),
		Member:     NewMemberRepo(db),
		RolePeriod: NewRolePeriodRepo(db),
		Boss:       NewBossRepo(db),
		Loot:       NewLootRepo(db),
		Salary:     NewSalaryRepo(db),
		Attendance: NewAttendanceRepo(db),
		Financials: NewFinancialsRepo(db),
	}
}

// Transaction 在单个数据库事务中执行 fn
// fn 收到绑定到事务的 Repository；fn 返回错误或 panic 时整体回滚
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// DB 返回底层连接，供迁移与健康检查使用
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Ping 健康检查
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
