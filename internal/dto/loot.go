package dto

import "time"

// ── 战利品模块 DTO ──

// LootListRequest 战利品列表查询参数
type LootListRequest struct {
	Search string `form:"search" binding:"omitempty,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=PENDING SOLD SETTLED"`
	PaginationRequest
}

// CreateLootRequest 单件录入请求
type CreateLootRequest struct {
	Name           string    `json:"name"            binding:"required,max=200"`
	BossID         string    `json:"boss_id"         binding:"required"`
	Value          float64   `json:"value"           binding:"required,gt=0"`
	DateAcquired   time.Time `json:"date_acquired"   binding:"required"`
	Status         string    `json:"status"          binding:"omitempty,oneof=PENDING SOLD SETTLED"`
	ParticipantIDs []string  `json:"participant_ids"`
}

// UpdateLootRequest 编辑请求；ParticipantIDs 非空指针时整体替换参与者
type UpdateLootRequest struct {
	Name           *string    `json:"name"            binding:"omitempty,max=200"`
	BossID         *string    `json:"boss_id"`
	Value          *float64   `json:"value"           binding:"omitempty,gt=0"`
	DateAcquired   *time.Time `json:"date_acquired"`
	Status         *string    `json:"status"          binding:"omitempty,oneof=PENDING SOLD SETTLED"`
	ParticipantIDs *[]string  `json:"participant_ids"`
}

// UpdateLootStatusRequest 状态变更请求
type UpdateLootStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ImportLootRow CSV 导入的一行，日期格式 MM/DD/YYYY，参与者为成员名
type ImportLootRow struct {
	ItemName     string   `json:"item_name"     yaml:"item_name"`
	BossName     string   `json:"boss_name"     yaml:"boss_name"`
	ItemValue    float64  `json:"item_value"    yaml:"item_value"`
	DateAcquired string   `json:"date_acquired" yaml:"date_acquired"`
	Participants []string `json:"participants"  yaml:"participants"`
}

// ImportLootRequest CSV 导入请求
type ImportLootRequest struct {
	Rows []ImportLootRow `json:"rows" binding:"required,min=1,max=2000"`
}

// ImportRowError 导入失败的行
type ImportRowError struct {
	Row     int    `json:"row"` // 从 1 开始
	Message string `json:"message"`
}

// ImportLootResponse CSV 导入结果
type ImportLootResponse struct {
	Created        int              `json:"created"`
	BossesCreated  int              `json:"bosses_created"`
	MembersCreated int              `json:"members_created"`
	Errors         []ImportRowError `json:"errors"`
}

// ParticipantResponse 参与者
type ParticipantResponse struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
}

// LootSalaryResponse 物品上的工资
type LootSalaryResponse struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Amount   int64  `json:"amount"`
}

// LootItemResponse 战利品信息响应
type LootItemResponse struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Value        float64               `json:"value"`
	DateAcquired string                `json:"date_acquired"`
	Status       string                `json:"status"`
	Boss         *BossBrief            `json:"boss,omitempty"`
	Participants []ParticipantResponse `json:"participants"`
	Salaries     []LootSalaryResponse  `json:"salaries"`
	CreatedAt    string                `json:"created_at"`
}

// RecalculationResponse 工资全量重算结果
type RecalculationResponse struct {
	TotalLootValue            float64 `json:"total_loot_value"`
	TotalDistributed          float64 `json:"total_distributed"`
	GuildFund                 float64 `json:"guild_fund"`
	AdminFee                  float64 `json:"admin_fee"`
	ItemsProcessed            int     `json:"items_processed"`
	SalariesCreated           int     `json:"salaries_created"`
	ItemsWithoutBeneficiaries int     `json:"items_without_beneficiaries"`
	DurationMs                int64   `json:"duration_ms"`
}
