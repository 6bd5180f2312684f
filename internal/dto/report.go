package dto

// ── 报表模块 DTO ──

// IntegrityResponse 对账结果
type IntegrityResponse struct {
	TotalLootValue   float64 `json:"total_loot_value"`
	TotalDistributed float64 `json:"total_distributed"`
	GuildFund        float64 `json:"guild_fund"`
	AdminFee         float64 `json:"admin_fee"`
	CalculatedTotal  float64 `json:"calculated_total"`
	IsValid          bool    `json:"is_valid"`
}

// IntegrityReportResponse 实时对账与快照对账
// Stale 表示快照与实时数据不一致，需要重新计算
type IntegrityReportResponse struct {
	Live      IntegrityResponse  `json:"live"`
	Snapshot  *IntegrityResponse `json:"snapshot"`
	Stale     bool               `json:"stale"`
	UpdatedAt *string            `json:"snapshot_updated_at"`
}

// FinancialSummary 财务汇总
type FinancialSummary struct {
	TotalLootValue   float64 `json:"total_loot_value"`
	TotalDistributed float64 `json:"total_distributed"`
	GuildFund        float64 `json:"guild_fund"`
	AdminFee         float64 `json:"admin_fee"`
	TotalMembers     int64   `json:"total_members"`
	TotalBosses      int     `json:"total_bosses"`
	TotalItems       int     `json:"total_items"`
}

// MemberEarning 成员收入
type MemberEarning struct {
	MemberID       string  `json:"member_id"`
	MemberName     string  `json:"member_name"`
	Role           string  `json:"role"`
	TotalEarnings  int64   `json:"total_earnings"`
	ItemCount      int     `json:"item_count"`
	AveragePerItem float64 `json:"average_per_item"`
}

// BossPerformance Boss 产出统计
type BossPerformance struct {
	BossName         string  `json:"boss_name"`
	TotalLootValue   float64 `json:"total_loot_value"`
	TotalDistributed int64   `json:"total_distributed"`
	ItemCount        int     `json:"item_count"`
	AverageItemValue float64 `json:"average_item_value"`
}

// StatusBreakdown 按状态汇总
type StatusBreakdown struct {
	Status     string  `json:"status"`
	ItemCount  int64   `json:"item_count"`
	TotalValue float64 `json:"total_value"`
}

// FinancialReportResponse 财务报表
type FinancialReportResponse struct {
	GeneratedAt     string            `json:"generated_at"`
	Summary         FinancialSummary  `json:"summary"`
	IntegrityCheck  IntegrityResponse `json:"integrity_check"`
	MemberBreakdown []MemberEarning   `json:"member_breakdown"`
	BossPerformance []BossPerformance `json:"boss_performance"`
	StatusBreakdown []StatusBreakdown `json:"status_breakdown"`
}

// MemberLootLine 成员报表中的单条收入
type MemberLootLine struct {
	ItemName     string  `json:"item_name"`
	BossName     string  `json:"boss_name"`
	ItemValue    float64 `json:"item_value"`
	SalaryAmount int64   `json:"salary_amount"`
	DateAcquired string  `json:"date_acquired"`
}

// WeeklyAttendance 周出勤
type WeeklyAttendance struct {
	Week     string `json:"week"`
	Attended bool   `json:"attended"`
}

// MemberReportLine 成员报表行
type MemberReportLine struct {
	MemberID         string             `json:"member_id"`
	MemberName       string             `json:"member_name"`
	Role             string             `json:"role"`
	TotalEarnings    int64              `json:"total_earnings"`
	TotalLootItems   int                `json:"total_loot_items"`
	AttendanceRate   int                `json:"attendance_rate"` // 百分比，四舍五入
	JoinDate         string             `json:"join_date"`
	PromotionDate    *string            `json:"promotion_date"`
	DemotionDate     *string            `json:"demotion_date"`
	LootBreakdown    []MemberLootLine   `json:"loot_breakdown"`
	WeeklyAttendance []WeeklyAttendance `json:"weekly_attendance"`
}

// MemberReportResponse 成员报表
type MemberReportResponse struct {
	GeneratedAt  string             `json:"generated_at"`
	TotalMembers int                `json:"total_members"`
	Report       []MemberReportLine `json:"report"`
}

// SalaryLine 市场交易报表中的工资明细
type SalaryLine struct {
	MemberName   string `json:"member_name"`
	MemberRole   string `json:"member_role"`
	SalaryAmount int64  `json:"salary_amount"`
}

// MarketExchangeLine 市场交易报表行
type MarketExchangeLine struct {
	ItemName             string       `json:"item_name"`
	BossName             string       `json:"boss_name"`
	ItemValue            float64      `json:"item_value"`
	DateAcquired         string       `json:"date_acquired"`
	Status               string       `json:"status"`
	Participants         []string     `json:"participants"`
	ParticipantCount     int          `json:"participant_count"`
	SalaryBreakdown      []SalaryLine `json:"salary_breakdown"`
	TotalSalariesPaid    int64        `json:"total_salaries_paid"`
	RemainderToGuildFund float64      `json:"remainder_to_guild_fund"`
}

// MarketExchangeSummary 市场交易汇总
type MarketExchangeSummary struct {
	TotalItems       int                `json:"total_items"`
	TotalValue       float64            `json:"total_value"`
	TotalDistributed int64              `json:"total_distributed"`
	TotalToGuildFund float64            `json:"total_to_guild_fund"`
	ItemsByStatus    map[string]int     `json:"items_by_status"`
	ValueByStatus    map[string]float64 `json:"value_by_status"`
}

// MarketExchangeResponse 市场交易报表
type MarketExchangeResponse struct {
	GeneratedAt string                `json:"generated_at"`
	Summary     MarketExchangeSummary `json:"summary"`
	Report      []MarketExchangeLine  `json:"report"`
}

// DashboardResponse 管理后台首页
type DashboardResponse struct {
	Financials        FinancialSnapshot  `json:"financials"`
	LootSummary       []StatusBreakdown  `json:"loot_summary"`
	TopEarners        []MemberEarning    `json:"top_earners"`
	RecentSettlements []LootItemResponse `json:"recent_settlements"`
	IntegrityCheck    IntegrityResponse  `json:"integrity_check"`
}

// FinancialSnapshot 财务快照
type FinancialSnapshot struct {
	TotalLootValue   float64 `json:"total_loot_value"`
	TotalDistributed float64 `json:"total_distributed"`
	GuildFund        float64 `json:"guild_fund"`
	AdminFee         float64 `json:"admin_fee"`
	UpdatedAt        *string `json:"updated_at"`
}
