package model

import (
	"time"

	"gorm.io/gorm"
)

// Salary 工资表，对应 salaries
// 由工资分配引擎全量重算，除单件录入外不应由其他流程写入
type Salary struct {
	SalaryID   string    `gorm:"primaryKey;size:36"     json:"salary_id"`
	MemberID   string    `gorm:"size:36;not null;index" json:"member_id"`
	LootItemID string    `gorm:"size:36;not null;index" json:"loot_item_id"`
	Amount     int64     `gorm:"not null"               json:"amount"`
	CreatedAt  time.Time `gorm:"not null"               json:"created_at"`

	// 关联，仅用于预加载；外键约束由 Member、LootItem 一侧声明
	Member   *Member   `gorm:"foreignKey:MemberID;references:MemberID;constraint:-"     json:"member,omitempty"`
	LootItem *LootItem `gorm:"foreignKey:LootItemID;references:LootItemID;constraint:-" json:"loot_item,omitempty"`
}

// TableName 指定表名
func (Salary) TableName() string { return "salaries" }

// BeforeCreate 生成主键
func (s *Salary) BeforeCreate(_ *gorm.DB) error {
	newID(&s.SalaryID)
	return nil
}
