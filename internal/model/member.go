package model

import (
	"time"

	"gorm.io/gorm"
)

// Member 公会成员表，对应 members
type Member struct {
	MemberID      string     `gorm:"primaryKey;size:36"                    json:"member_id"`
	Name          string     `gorm:"size:100;not null;uniqueIndex"         json:"name"`
	Role          Role       `gorm:"size:20;not null;default:'MEMBER'"     json:"role"` // 当前角色缓存，仅由角色时间线写入
	PromotionDate *time.Time `json:"promotion_date,omitempty"`                            // 仅展示
	DemotionDate  *time.Time `json:"demotion_date,omitempty"`                             // 仅展示
	BaseModel

	// 关联：外键约束由父表一侧声明，删除成员时级联清理
	RolePeriods    []RolePeriod    `gorm:"foreignKey:MemberID;references:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	Participations []Participation `gorm:"foreignKey:MemberID;references:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	Salaries       []Salary        `gorm:"foreignKey:MemberID;references:MemberID;constraint:OnDelete:CASCADE" json:"-"`
	Attendances    []Attendance    `gorm:"foreignKey:MemberID;references:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Member) TableName() string { return "members" }

// BeforeCreate 生成主键
func (m *Member) BeforeCreate(_ *gorm.DB) error {
	newID(&m.MemberID)
	return nil
}
