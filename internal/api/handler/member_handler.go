package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/service"
	"guild-ledger/backend/pkg/response"
)

// MemberHandler 成员、角色时间线与出勤模块 HTTP 处理器
type MemberHandler struct {
	memberSvc     service.MemberService
	timelineSvc   service.RoleTimelineService
	attendanceSvc service.AttendanceService
}

// NewMemberHandler 创建 MemberHandler
func NewMemberHandler(
	memberSvc service.MemberService,
	timelineSvc service.RoleTimelineService,
	attendanceSvc service.AttendanceService,
) *MemberHandler {
	return &MemberHandler{
		memberSvc:     memberSvc,
		timelineSvc:   timelineSvc,
		attendanceSvc: attendanceSvc,
	}
}

// ListMembers 获取成员列表
// GET /api/v1/members
func (h *MemberHandler) ListMembers(c *gin.Context) {
	members, err := h.memberSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": members})
}

// GetMember 获取成员详情
// GET /api/v1/members/:id
func (h *MemberHandler) GetMember(c *gin.Context) {
	member, err := h.memberSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, member)
}

// CreateMember 创建成员
// POST /api/v1/members
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req dto.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	member, err := h.memberSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.Created(c, member)
}

// UpdateMember 更新成员
// PUT /api/v1/members/:id
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	member, err := h.memberSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, member)
}

// DeleteMember 删除成员
// DELETE /api/v1/members/:id
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	if err := h.memberSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 角色时间线 ──

// GetRoleAt 查询成员在指定时刻的角色，at 缺省为当前时刻
// GET /api/v1/members/:id/role?at=2026-01-02T15:04:05Z
func (h *MemberHandler) GetRoleAt(c *gin.Context) {
	memberID := c.Param("id")
	at := time.Now()
	if raw := c.Query("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, 10001, "at 格式无效，应为 RFC3339")
			return
		}
		at = t
	}

	role, ok, err := h.timelineSvc.RoleAt(c.Request.Context(), memberID, at)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	var current *string
	if ok {
		s := string(role)
		current = &s
	}
	response.OK(c, gin.H{"member_id": memberID, "at": dto.FormatTime(at), "role": current})
}

// GetRoleHistory 获取成员角色历史
// GET /api/v1/members/:id/role-history
func (h *MemberHandler) GetRoleHistory(c *gin.Context) {
	history, err := h.timelineSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, history)
}

// AddRolePeriod 追加角色有效期
// POST /api/v1/members/:id/role-history
func (h *MemberHandler) AddRolePeriod(c *gin.Context) {
	var req dto.AddRolePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	period, err := h.timelineSvc.AddPeriod(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.Created(c, period)
}

// GetRoleOverlaps 列出成员重叠的有效期
// GET /api/v1/members/:id/role-history/overlaps
func (h *MemberHandler) GetRoleOverlaps(c *gin.Context) {
	overlaps, err := h.timelineSvc.Overlaps(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, gin.H{"list": overlaps})
}

// UpdateRolePeriod 修改有效期
// PUT /api/v1/members/role-history/:periodId
func (h *MemberHandler) UpdateRolePeriod(c *gin.Context) {
	var req dto.UpdateRolePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	period, err := h.timelineSvc.UpdatePeriod(c.Request.Context(), c.Param("periodId"), &req)
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, period)
}

// DeleteRolePeriod 删除有效期
// DELETE /api/v1/members/role-history/:periodId
func (h *MemberHandler) DeleteRolePeriod(c *gin.Context) {
	if err := h.timelineSvc.DeletePeriod(c.Request.Context(), c.Param("periodId")); err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, nil)
}

// InitializeRoleHistory 为缺少有效期的成员补建初始有效期
// POST /api/v1/members/role-history/initialize
func (h *MemberHandler) InitializeRoleHistory(c *gin.Context) {
	result, err := h.timelineSvc.InitializeHistory(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

// ── 出勤 ──

// SyncAttendance 同步出勤，week 缺省为当前周
// POST /api/v1/members/attendance/sync?week=2026-42
func (h *MemberHandler) SyncAttendance(c *gin.Context) {
	var (
		result *dto.AttendanceSyncResponse
		err    error
	)
	if week := c.Query("week"); week != "" {
		result, err = h.attendanceSvc.SyncWeek(c.Request.Context(), week)
	} else {
		result, err = h.attendanceSvc.Sync(c.Request.Context())
	}
	if err != nil {
		h.handleMemberError(c, err)
		return
	}

	response.OK(c, result)
}

// handleMemberError 统一处理成员模块业务错误
func (h *MemberHandler) handleMemberError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound):
		response.NotFound(c, 12001, "成员不存在")
	case errors.Is(err, service.ErrDuplicateName):
		response.Conflict(c, 12002, "成员名称已存在")
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 12003, "成员名称不能为空")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 12004, "角色无效，应为 GUILD_MASTER / CORE / MEMBER")
	case errors.Is(err, service.ErrRolePeriodNotFound):
		response.NotFound(c, 13001, "角色有效期不存在")
	case errors.Is(err, service.ErrStartDateRequired):
		response.BadRequest(c, 13002, "开始时间不能为空")
	case errors.Is(err, service.ErrInvalidWeekKey):
		response.BadRequest(c, 13101, "周次格式无效，应为 YYYY-WW")
	default:
		response.InternalError(c)
	}
}
