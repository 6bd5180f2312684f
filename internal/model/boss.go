package model

import (
	"time"

	"gorm.io/gorm"
)

// Boss Boss 表，对应 bosses
type Boss struct {
	BossID         string     `gorm:"primaryKey;size:36"                  json:"boss_id"`
	Name           string     `gorm:"size:100;not null;uniqueIndex"       json:"name"`
	Type           BossType   `gorm:"size:10;not null;default:'NORMAL'"   json:"type"`
	RespawnMinutes int        `gorm:"not null"                            json:"respawn_minutes"`
	LastKilledAt   *time.Time `json:"last_killed_at,omitempty"`
	VersionedModel

	// 关联：仍有战利品引用时禁止删除
	LootItems []LootItem `gorm:"foreignKey:BossID;references:BossID;constraint:OnDelete:RESTRICT" json:"-"`
}

// TableName 指定表名
func (Boss) TableName() string { return "bosses" }

// BeforeCreate 生成主键
func (b *Boss) BeforeCreate(_ *gorm.DB) error {
	newID(&b.BossID)
	return nil
}

// NextSpawn 下次刷新时间；从未击杀时返回 nil
func (b *Boss) NextSpawn() *time.Time {
	if b.LastKilledAt == nil {
		return nil
	}
	t := b.LastKilledAt.Add(time.Duration(b.RespawnMinutes) * time.Minute)
	return &t
}
