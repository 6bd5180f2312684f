package model

// Role 公会成员角色
type Role string

const (
	RoleGuildMaster Role = "GUILD_MASTER"
	RoleCore        Role = "CORE"
	RoleMember      Role = "MEMBER"
)

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleGuildMaster, RoleCore, RoleMember:
		return true
	}
	return false
}

// LootStatus 战利品状态
type LootStatus string

const (
	LootStatusPending LootStatus = "PENDING"
	LootStatusSold    LootStatus = "SOLD"
	LootStatusSettled LootStatus = "SETTLED"
)

// Valid 是否为合法状态
func (s LootStatus) Valid() bool {
	switch s {
	case LootStatusPending, LootStatusSold, LootStatusSettled:
		return true
	}
	return false
}

// BossType Boss 刷新类型（仅展示用途，不影响分配）
type BossType string

const (
	BossTypeNormal BossType = "NORMAL"
	BossTypeFixed  BossType = "FIXED"
)

// Valid 是否为合法类型
func (t BossType) Valid() bool {
	return t == BossTypeNormal || t == BossTypeFixed
}
