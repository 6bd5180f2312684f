package handler

import "guild-ledger/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth   *AuthHandler
	Member *MemberHandler
	Boss   *BossHandler
	Loot   *LootHandler
	Report *ReportHandler
	Export *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(svc.Auth),
		Member: NewMemberHandler(svc.Member, svc.RoleTimeline, svc.Attendance),
		Boss:   NewBossHandler(svc.Boss),
		Loot:   NewLootHandler(svc.Loot, svc.Salary),
		Report: NewReportHandler(svc.Report),
		Export: NewExportHandler(svc.Report, svc.Boss),
	}
}
