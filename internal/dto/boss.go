package dto

import "time"

// ── Boss 模块 DTO ──

// CreateBossRequest 创建 Boss 请求
type CreateBossRequest struct {
	Name           string `json:"name"            binding:"required,max=100"`
	Type           string `json:"type"            binding:"omitempty,oneof=NORMAL FIXED"`
	RespawnMinutes int    `json:"respawn_minutes" binding:"required,min=1"`
}

// UpdateBossRequest 更新 Boss 请求（乐观锁）
type UpdateBossRequest struct {
	Name           *string `json:"name"            binding:"omitempty,max=100"`
	Type           *string `json:"type"            binding:"omitempty,oneof=NORMAL FIXED"`
	RespawnMinutes *int    `json:"respawn_minutes" binding:"omitempty,min=1"`
	Version        int     `json:"version"         binding:"required,min=1"`
}

// KillBossRequest 记录击杀请求；KilledAt 为空时取当前时刻
type KillBossRequest struct {
	KilledAt *time.Time `json:"killed_at"`
	Version  int        `json:"version"   binding:"required,min=1"`
}

// BossResponse Boss 信息响应
type BossResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	RespawnMinutes int     `json:"respawn_minutes"`
	LastKilledAt   *string `json:"last_killed_at"`
	NextSpawn      *string `json:"next_spawn"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
}

// BossBrief Boss 简要信息
type BossBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
