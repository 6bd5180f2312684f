package handler

import (
	"github.com/gin-gonic/gin"

	"guild-ledger/backend/internal/service"
	"guild-ledger/backend/pkg/response"
)

// ReportHandler 报表模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Financial 财务报表
// GET /api/v1/reports/financial
func (h *ReportHandler) Financial(c *gin.Context) {
	report, err := h.reportSvc.Financial(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, report)
}

// Members 成员报表
// GET /api/v1/reports/members
func (h *ReportHandler) Members(c *gin.Context) {
	report, err := h.reportSvc.Members(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, report)
}

// MarketExchange 市场交易报表
// GET /api/v1/reports/market-exchange
func (h *ReportHandler) MarketExchange(c *gin.Context) {
	report, err := h.reportSvc.MarketExchange(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, report)
}

// Integrity 实时对账
// GET /api/v1/reports/integrity
func (h *ReportHandler) Integrity(c *gin.Context) {
	report, err := h.reportSvc.Integrity(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, report)
}

// Dashboard 管理后台首页
// GET /api/v1/dashboard
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dash, err := h.reportSvc.Dashboard(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, dash)
}
