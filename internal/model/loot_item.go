package model

import (
	"time"

	"gorm.io/gorm"
)

// LootItem 战利品表，对应 loot_items
// Value 以浮点存储，分配时按整数向下取整处理
type LootItem struct {
	LootItemID   string     `gorm:"primaryKey;size:36"                         json:"loot_item_id"`
	Name         string     `gorm:"size:200;not null"                          json:"name"`
	Value        float64    `gorm:"not null"                                   json:"value"`
	DateAcquired time.Time  `gorm:"not null;index"                             json:"date_acquired"`
	Status       LootStatus `gorm:"size:10;not null;default:'PENDING';index"   json:"status"`
	BossID       string     `gorm:"size:36;not null;index"                     json:"boss_id"`
	BaseModel

	// 关联；Boss 仅用于预加载，外键约束在 Boss.LootItems 上声明
	Boss           *Boss           `gorm:"foreignKey:BossID;references:BossID;constraint:-"                        json:"boss,omitempty"`
	Participations []Participation `gorm:"foreignKey:LootItemID;references:LootItemID;constraint:OnDelete:CASCADE" json:"participations,omitempty"`
	Salaries       []Salary        `gorm:"foreignKey:LootItemID;references:LootItemID;constraint:OnDelete:CASCADE" json:"salaries,omitempty"`
}

// TableName 指定表名
func (LootItem) TableName() string { return "loot_items" }

// BeforeCreate 生成主键
func (l *LootItem) BeforeCreate(_ *gorm.DB) error {
	newID(&l.LootItemID)
	return nil
}

// Participation 战利品参与记录表，对应 loot_participations
type Participation struct {
	ParticipationID string    `gorm:"primaryKey;size:36"                                        json:"participation_id"`
	LootItemID      string    `gorm:"size:36;not null;uniqueIndex:uk_participation_item_member" json:"loot_item_id"`
	MemberID        string    `gorm:"size:36;not null;uniqueIndex:uk_participation_item_member;index" json:"member_id"`
	CreatedAt       time.Time `gorm:"not null"                                                  json:"created_at"`

	// 关联，仅用于预加载
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID;constraint:-" json:"member,omitempty"`
}

// TableName 指定表名
func (Participation) TableName() string { return "loot_participations" }

// BeforeCreate 生成主键
func (p *Participation) BeforeCreate(_ *gorm.DB) error {
	newID(&p.ParticipationID)
	return nil
}
