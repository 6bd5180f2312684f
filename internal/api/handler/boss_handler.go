package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/service"
	pkgerrors "guild-ledger/backend/pkg/errors"
	"guild-ledger/backend/pkg/response"
)

// BossHandler Boss 模块 HTTP 处理器
type BossHandler struct {
	bossSvc service.BossService
}

// NewBossHandler 创建 BossHandler
func NewBossHandler(bossSvc service.BossService) *BossHandler {
	return &BossHandler{bossSvc: bossSvc}
}

// ListBosses 获取 Boss 列表
// GET /api/v1/bosses
func (h *BossHandler) ListBosses(c *gin.Context) {
	bosses, err := h.bossSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": bosses})
}

// CreateBoss 创建 Boss
// POST /api/v1/bosses
func (h *BossHandler) CreateBoss(c *gin.Context) {
	var req dto.CreateBossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	boss, err := h.bossSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleBossError(c, err)
		return
	}

	response.Created(c, boss)
}

// UpdateBoss 更新 Boss（乐观锁）
// PUT /api/v1/bosses/:id
func (h *BossHandler) UpdateBoss(c *gin.Context) {
	var req dto.UpdateBossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	boss, err := h.bossSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleBossError(c, err)
		return
	}

	response.OK(c, boss)
}

// KillBoss 记录击杀
// POST /api/v1/bosses/:id/kill
func (h *BossHandler) KillBoss(c *gin.Context) {
	var req dto.KillBossRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	boss, err := h.bossSvc.Kill(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleBossError(c, err)
		return
	}

	response.OK(c, boss)
}

// DeleteBoss 删除 Boss
// DELETE /api/v1/bosses/:id
func (h *BossHandler) DeleteBoss(c *gin.Context) {
	if err := h.bossSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleBossError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleBossError 统一处理 Boss 模块业务错误
func (h *BossHandler) handleBossError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBossNotFound):
		response.NotFound(c, 14001, "Boss 不存在")
	case errors.Is(err, service.ErrDuplicateName):
		response.Conflict(c, 14002, "Boss 名称已存在")
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 14003, "Boss 名称不能为空")
	case errors.Is(err, service.ErrInvalidBossType):
		response.BadRequest(c, 14004, "Boss 类型无效，应为 NORMAL / FIXED")
	case errors.Is(err, service.ErrBossInUse):
		response.Conflict(c, 14005, "该 Boss 仍有关联的战利品，无法删除")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 14006, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
