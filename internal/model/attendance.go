package model

import "gorm.io/gorm"

// Attendance 周出勤表，对应 attendances
// 只写入 attended=true；某周无记录即视为缺勤
type Attendance struct {
	AttendanceID string `gorm:"primaryKey;size:36"                                  json:"attendance_id"`
	MemberID     string `gorm:"size:36;not null;uniqueIndex:uk_attendance_member_week" json:"member_id"`
	Week         string `gorm:"size:10;not null;uniqueIndex:uk_attendance_member_week;index" json:"week"` // 形如 2026-42
	Attended     bool   `gorm:"not null;default:false"                              json:"attended"`
	BaseModel
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendances" }

// BeforeCreate 生成主键
func (a *Attendance) BeforeCreate(_ *gorm.DB) error {
	newID(&a.AttendanceID)
	return nil
}
