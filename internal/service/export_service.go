package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"academy-portal/backend/internal/model"
	"academy-portal/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRecords    = errors.New("该月份暂无考勤记录")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 按月导出某学生的考勤明细为 Excel (.xlsx)
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
//   - 每行一天：日期 / 入离馆 / 净学习时长 / 分类时长 / 出勤标记
type ExportService interface {
	// ExportMonthly 导出学生某月的考勤明细
	ExportMonthly(ctx context.Context, studentID string, year int, month time.Month) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	nowFn  func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, nowFn: time.Now}
}

func (s *exportService) ExportMonthly(ctx context.Context, studentID string, year int, month time.Month) (*bytes.Buffer, string, error) {
	// 1. 查询学生与当月记录
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, "", err
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, -1)
	records, err := s.repo.Attendance.ListByStudentRange(ctx, studentID, from, to)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrExportNoRecords
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "考勤明细"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "C", 10)
	f.SetColWidth(sheetName, "D", "D", 14)
	f.SetColWidth(sheetName, "E", "E", 28)
	f.SetColWidth(sheetName, "F", "F", 10)

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	title := fmt.Sprintf("%s — %d年%d月考勤", student.Name, year, int(month))
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	f.SetCellValue(sheetName, cell("A", row), "日期")
	f.SetCellValue(sheetName, cell("B", row), "入馆")
	f.SetCellValue(sheetName, cell("C", row), "离馆")
	f.SetCellValue(sheetName, cell("D", row), "净学习(分钟)")
	f.SetCellValue(sheetName, cell("E", row), "分类时长")
	f.SetCellValue(sheetName, cell("F", row), "出勤")

	// 数据行：汇总口径与查询接口一致（已离馆记录用离馆时刻封口；
	// 当天进行中的记录截算到当前时刻，往日未离馆记录按 24:00 封口）
	now := s.nowFn()
	today := dateTruncate(now)
	row = 3
	var totalNet int
	for i := range records {
		rec := &records[i]
		cutoff := TimeOfDay(24 * 60)
		if rec.RecordDate.Equal(today) {
			cutoff = ClockOf(now)
		}
		net := CalcNetStudyMinutes(rec, cutoff)
		totalNet += net

		f.SetCellValue(sheetName, cell("A", row), rec.RecordDate.Format("2006-01-02"))
		f.SetCellValue(sheetName, cell("B", row), derefClock(rec.CheckIn))
		f.SetCellValue(sheetName, cell("C", row), derefClock(rec.CheckOut))
		f.SetCellValue(sheetName, cell("D", row), net)
		f.SetCellValue(sheetName, cell("E", row), formatCategoryDurations(rec.Segments, cutoff))
		f.SetCellValue(sheetName, cell("F", row), statusLabel(rec))
		row++
	}

	// 合计行
	f.SetCellValue(sheetName, cell("A", row), "合计")
	f.SetCellValue(sheetName, cell("D", row), totalNet)

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("考勤_%s_%d-%02d.xlsx", student.Name, year, int(month))
	return buf, filename, nil
}

// ── 辅助函数 ──

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func derefClock(p *string) string {
	if p == nil {
		return "-"
	}
	return *p
}

func statusLabel(rec *model.AttendanceRecord) string {
	switch rec.Status {
	case "late":
		return "迟到"
	case "absent":
		return "缺席"
	}
	if rec.CheckIn != nil {
		return "正常"
	}
	return "缺席"
}

func formatCategoryDurations(segments model.SegmentList, now TimeOfDay) string {
	byCat := CalcDurationByCategory(segments, now)
	if len(byCat) == 0 {
		return "-"
	}
	buf := new(bytes.Buffer)
	for _, cat := range sortedKeys(byCat) {
		if buf.Len() > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(buf, "%s %d分", cat, byCat[cat])
	}
	return buf.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
