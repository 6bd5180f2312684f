package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"guild-ledger/backend/internal/dto"
)

// ErrExportGenerateFail 生成 Excel 失败
var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// ═══════════════════════════════════════════════════════════
// ExportFinancial 导出财务报表为 Excel
// ═══════════════════════════════════════════════════════════
//
// Sheet 结构：
//   - 汇总：总价值 / 已分配 / 公会基金 / 管理费 / 对账结果
//   - 成员收入：按收入倒序
//   - Boss 产出：按产出价值倒序
//   - 状态汇总：PENDING / SOLD / SETTLED

func (s *reportService) ExportFinancial(ctx context.Context) (*bytes.Buffer, string, error) {
	report, err := s.Financial(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 1. 汇总
	summary := "汇总"
	idx, _ := f.NewSheet(summary)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")
	f.SetColWidth(summary, "A", "A", 18)
	f.SetColWidth(summary, "B", "B", 20)

	writeHeader(f, summary, headerStyle, "项目", "数值")
	summaryRows := []struct {
		label string
		value interface{}
	}{
		{"战利品总价值", report.Summary.TotalLootValue},
		{"已分配工资", report.Summary.TotalDistributed},
		{"公会基金", report.Summary.GuildFund},
		{"管理费", report.Summary.AdminFee},
		{"有收入成员数", report.Summary.TotalMembers},
		{"有掉落 Boss 数", report.Summary.TotalBosses},
		{"物品总数", report.Summary.TotalItems},
		{"对账合计", report.IntegrityCheck.CalculatedTotal},
		{"对账结果", integrityLabel(report.IntegrityCheck)},
	}
	for i, r := range summaryRows {
		f.SetCellValue(summary, cell("A", i+2), r.label)
		f.SetCellValue(summary, cell("B", i+2), r.value)
	}

	// 2. 成员收入
	members := "成员收入"
	f.NewSheet(members)
	f.SetColWidth(members, "A", "A", 20)
	f.SetColWidth(members, "B", "E", 14)
	writeHeader(f, members, headerStyle, "成员", "角色", "总收入", "物品数", "平均每件")
	for i, m := range report.MemberBreakdown {
		row := i + 2
		f.SetCellValue(members, cell("A", row), m.MemberName)
		f.SetCellValue(members, cell("B", row), m.Role)
		f.SetCellValue(members, cell("C", row), m.TotalEarnings)
		f.SetCellValue(members, cell("D", row), m.ItemCount)
		f.SetCellValue(members, cell("E", row), m.AveragePerItem)
	}

	// 3. Boss 产出
	bosses := "Boss 产出"
	f.NewSheet(bosses)
	f.SetColWidth(bosses, "A", "A", 20)
	f.SetColWidth(bosses, "B", "E", 14)
	writeHeader(f, bosses, headerStyle, "Boss", "总价值", "已分配", "物品数", "平均价值")
	for i, b := range report.BossPerformance {
		row := i + 2
		f.SetCellValue(bosses, cell("A", row), b.BossName)
		f.SetCellValue(bosses, cell("B", row), b.TotalLootValue)
		f.SetCellValue(bosses, cell("C", row), b.TotalDistributed)
		f.SetCellValue(bosses, cell("D", row), b.ItemCount)
		f.SetCellValue(bosses, cell("E", row), b.AverageItemValue)
	}

	// 4. 状态汇总
	statuses := "状态汇总"
	f.NewSheet(statuses)
	f.SetColWidth(statuses, "A", "C", 14)
	writeHeader(f, statuses, headerStyle, "状态", "物品数", "总价值")
	for i, st := range report.StatusBreakdown {
		row := i + 2
		f.SetCellValue(statuses, cell("A", row), st.Status)
		f.SetCellValue(statuses, cell("B", row), st.ItemCount)
		f.SetCellValue(statuses, cell("C", row), st.TotalValue)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("财务报表_%s.xlsx", s.now().In(s.loc).Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, style int, titles ...string) {
	for i, t := range titles {
		f.SetCellValue(sheet, cell(colName(i), 1), t)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(titles)-1), 1), style)
}

func integrityLabel(c dto.IntegrityResponse) string {
	if c.IsValid {
		return "一致"
	}
	return "不一致"
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
