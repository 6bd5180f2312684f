package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"guild-ledger/backend/internal/model"
)

// AttendanceRepository 周出勤数据访问接口
type AttendanceRepository interface {
	// MarkAttended 写入 (member, week) → attended=true，已存在则覆盖
	MarkAttended(ctx context.Context, memberID, week string) error
	ListByMember(ctx context.Context, memberID string) ([]model.Attendance, error)
	ListAll(ctx context.Context) ([]model.Attendance, error)
	// DistinctWeeks 返回所有出现过的周次，升序
	DistinctWeeks(ctx context.Context) ([]string, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) MarkAttended(ctx context.Context, memberID, week string) error {
	row := model.Attendance{MemberID: memberID, Week: week, Attended: true}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "member_id"}, {Name: "week"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"attended":   true,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&row).Error
}

func (r *attendanceRepo) ListByMember(ctx context.Context, memberID string) ([]model.Attendance, error) {
	var rows []model.Attendance
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("week DESC").
		Find(&rows).Error
	return rows, err
}

func (r *attendanceRepo) ListAll(ctx context.Context) ([]model.Attendance, error) {
	var rows []model.Attendance
	err := r.db.WithContext(ctx).
		Order("member_id ASC, week DESC").
		Find(&rows).Error
	return rows, err
}

func (r *attendanceRepo) DistinctWeeks(ctx context.Context) ([]string, error) {
	var weeks []string
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Distinct().
		Order("week ASC").
		Pluck("week", &weeks).Error
	return weeks, err
}
