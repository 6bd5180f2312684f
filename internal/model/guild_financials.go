package model

import "time"

// GuildFinancialsKey 公会财务快照的固定主键
const GuildFinancialsKey = "main"

// GuildFinancials 公会财务快照表，对应 guild_financials（单行强类型）
// 每次全量重算时整体覆盖
type GuildFinancials struct {
	ID               string    `gorm:"primaryKey;size:16"     json:"-"`
	TotalLootValue   float64   `gorm:"not null;default:0"     json:"total_loot_value"`
	TotalDistributed float64   `gorm:"not null;default:0"     json:"total_distributed"`
	GuildFund        float64   `gorm:"not null;default:0"     json:"guild_fund"`
	AdminFee         float64   `gorm:"not null;default:0"     json:"admin_fee"`
	UpdatedAt        time.Time `gorm:"not null"               json:"updated_at"`
}

// TableName 指定表名
func (GuildFinancials) TableName() string { return "guild_financials" }
