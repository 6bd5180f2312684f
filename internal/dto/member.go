package dto

import "time"

// ── 成员模块 DTO ──

// CreateMemberRequest 创建成员请求
// StartDate 为空时初始角色自当前时刻生效
type CreateMemberRequest struct {
	Name      string     `json:"name"       binding:"required,max=100"`
	Role      string     `json:"role"       binding:"required"`
	StartDate *time.Time `json:"start_date"`
	Reason    string     `json:"reason"     binding:"omitempty,max=255"`
}

// UpdateMemberRequest 更新成员请求
// Role 与当前角色不同时自当前时刻追加一段新有效期
type UpdateMemberRequest struct {
	Name          *string    `json:"name"           binding:"omitempty,max=100"`
	Role          *string    `json:"role"`
	PromotionDate *time.Time `json:"promotion_date"`
	DemotionDate  *time.Time `json:"demotion_date"`
	Reason        string     `json:"reason"         binding:"omitempty,max=255"`
}

// MemberResponse 成员信息响应
type MemberResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Role          string  `json:"role"`
	CurrentRole   string  `json:"current_role"`
	PromotionDate *string `json:"promotion_date,omitempty"`
	DemotionDate  *string `json:"demotion_date,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// ── 角色时间线 DTO ──

// AddRolePeriodRequest 追加角色有效期请求
type AddRolePeriodRequest struct {
	Role      string     `json:"role"       binding:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Reason    string     `json:"reason"     binding:"omitempty,max=255"`
}

// UpdateRolePeriodRequest 修改有效期请求，未提供的字段保持不变
// ClearEndDate 为 true 时将有效期改为开放区间
type UpdateRolePeriodRequest struct {
	Role         *string    `json:"role"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	ClearEndDate bool       `json:"clear_end_date"`
	Reason       *string    `json:"reason"        binding:"omitempty,max=255"`
}

// RolePeriodResponse 角色有效期响应
type RolePeriodResponse struct {
	ID        string  `json:"id"`
	MemberID  string  `json:"member_id"`
	Role      string  `json:"role"`
	StartDate string  `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Reason    string  `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// RoleHistoryResponse 成员角色历史
type RoleHistoryResponse struct {
	MemberID    string               `json:"member_id"`
	CurrentRole *string              `json:"current_role"`
	Periods     []RolePeriodResponse `json:"periods"`
}

// RoleOverlapResponse 重叠的有效期对
type RoleOverlapResponse struct {
	First  RolePeriodResponse `json:"first"`
	Second RolePeriodResponse `json:"second"`
}

// InitHistoryResponse 补建初始有效期结果
type InitHistoryResponse struct {
	Initialized int `json:"initialized"`
}

// ── 出勤 DTO ──

// AttendanceSyncResponse 出勤同步结果
type AttendanceSyncResponse struct {
	WeekProcessed      string `json:"week_processed"`
	AttendanceRecorded int    `json:"attendance_recorded"`
}
