package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"guild-ledger/backend/internal/service"
	"guild-ledger/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 文件导出 HTTP 处理器
type ExportHandler struct {
	reportSvc service.ReportService
	bossSvc   service.BossService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(reportSvc service.ReportService, bossSvc service.BossService) *ExportHandler {
	return &ExportHandler{reportSvc: reportSvc, bossSvc: bossSvc}
}

// ExportFinancial 导出财务报表
// GET /api/v1/reports/financial/export
func (h *ExportHandler) ExportFinancial(c *gin.Context) {
	buf, filename, err := h.reportSvc.ExportFinancial(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// BossCalendar Boss 刷新日历订阅
// GET /api/v1/bosses/calendar.ics
func (h *ExportHandler) BossCalendar(c *gin.Context) {
	data, err := h.bossSvc.Calendar(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.Attachment(c, "boss-respawns.ics", icsContentType, data)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 16101, "生成 Excel 文件失败")
	default:
		response.InternalError(c)
	}
}
