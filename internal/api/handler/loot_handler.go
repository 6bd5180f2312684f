package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"guild-ledger/backend/internal/dto"
	"guild-ledger/backend/internal/service"
	"guild-ledger/backend/pkg/response"
)

// LootHandler 战利品与工资分配模块 HTTP 处理器
type LootHandler struct {
	lootSvc   service.LootService
	salarySvc service.SalaryService
}

// NewLootHandler 创建 LootHandler
func NewLootHandler(lootSvc service.LootService, salarySvc service.SalaryService) *LootHandler {
	return &LootHandler{lootSvc: lootSvc, salarySvc: salarySvc}
}

// ListLoot 获取战利品列表；提供 page 或 page_size 时分页返回
// GET /api/v1/loot?search=&status=&page=&page_size=
func (h *LootHandler) ListLoot(c *gin.Context) {
	var req dto.LootListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, err := h.lootSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	if req.Page > 0 || req.PageSize > 0 {
		response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
		return
	}
	response.OK(c, gin.H{"list": items})
}

// GetLoot 获取战利品详情
// GET /api/v1/loot/:id
func (h *LootHandler) GetLoot(c *gin.Context) {
	item, err := h.lootSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLootError(c, err)
		return
	}

	response.OK(c, item)
}

// CreateLoot 单件录入
// POST /api/v1/loot
func (h *LootHandler) CreateLoot(c *gin.Context) {
	var req dto.CreateLootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.lootSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleLootError(c, err)
		return
	}

	response.Created(c, item)
}

// UpdateLoot 编辑战利品
// PUT /api/v1/loot/:id
func (h *LootHandler) UpdateLoot(c *gin.Context) {
	var req dto.UpdateLootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.lootSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleLootError(c, err)
		return
	}

	response.OK(c, item)
}

// UpdateLootStatus 变更状态
// PUT /api/v1/loot/:id/status
func (h *LootHandler) UpdateLootStatus(c *gin.Context) {
	var req dto.UpdateLootStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.lootSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.handleLootError(c, err)
		return
	}

	response.OK(c, item)
}

// DeleteLoot 删除战利品
// DELETE /api/v1/loot/:id
func (h *LootHandler) DeleteLoot(c *gin.Context) {
	if err := h.lootSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleLootError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportLoot 批量导入 CSV 行
// POST /api/v1/loot/import
func (h *LootHandler) ImportLoot(c *gin.Context) {
	var req dto.ImportLootRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.lootSvc.Import(c.Request.Context(), &req)
	if err != nil {
		h.handleLootError(c, err)
		return
	}

	response.OK(c, result)
}

// Recalculate 全量重算工资
// POST /api/v1/loot/recalculate
func (h *LootHandler) Recalculate(c *gin.Context) {
	result, err := h.salarySvc.Recalculate(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, 15101, "工资重算失败，数据未改动")
		return
	}

	response.OK(c, result)
}

// handleLootError 统一处理战利品模块业务错误
func (h *LootHandler) handleLootError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLootItemNotFound):
		response.NotFound(c, 15001, "战利品不存在")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 15002, "状态无效，应为 PENDING / SOLD / SETTLED")
	case errors.Is(err, service.ErrParticipantNotFound):
		response.BadRequest(c, 15003, "参与者中包含不存在的成员")
	case errors.Is(err, service.ErrBossNotFound):
		response.BadRequest(c, 15004, "Boss 不存在")
	case errors.Is(err, service.ErrNameRequired):
		response.BadRequest(c, 15005, "物品名称不能为空")
	default:
		response.InternalError(c)
	}
}
