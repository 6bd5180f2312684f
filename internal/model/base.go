package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// newID 主键在应用侧生成，PostgreSQL 与 SQLite 行为一致
func newID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

// All 返回所有需要建表的模型（SQLite 开发库 AutoMigrate 使用）
func All() []interface{} {
	return []interface{}{
		&Admin{},
		&Member{},
		&RolePeriod{},
		&Boss{},
		&LootItem{},
		&Participation{},
		&Salary{},
		&Attendance{},
		&GuildFinancials{},
	}
}
