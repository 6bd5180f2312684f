package model

import (
	"time"

	"gorm.io/gorm"
)

// RolePeriod 成员角色有效期表，对应 member_role_periods
// [StartDate, EndDate] 为闭区间，EndDate 为空表示仍在生效
type RolePeriod struct {
	PeriodID  string     `gorm:"primaryKey;size:36"                                       json:"period_id"`
	MemberID  string     `gorm:"size:36;not null;index:idx_role_periods_member_start,priority:1" json:"member_id"`
	Role      Role       `gorm:"size:20;not null"                                         json:"role"`
	StartDate time.Time  `gorm:"not null;index:idx_role_periods_member_start,priority:2"  json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Reason    string     `gorm:"size:255"                                                 json:"reason,omitempty"`
	BaseModel
}

// TableName 指定表名
func (RolePeriod) TableName() string { return "member_role_periods" }

// BeforeCreate 生成主键
func (p *RolePeriod) BeforeCreate(_ *gorm.DB) error {
	newID(&p.PeriodID)
	return nil
}

// Covers 判断时间点是否落在该有效期内（两端闭区间）
func (p *RolePeriod) Covers(t time.Time) bool {
	if p.StartDate.After(t) {
		return false
	}
	return p.EndDate == nil || !p.EndDate.Before(t)
}
