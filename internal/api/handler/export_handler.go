package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"academy-portal/backend/internal/service"
	"academy-portal/backend/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportMonthly 导出学生月度考勤明细
// GET /api/v1/export/attendance?student_id=xxx&year=2026&month=3
func (h *ExportHandler) ExportMonthly(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.BadRequest(c, 10001, "student_id 不能为空")
		return
	}

	now := time.Now()
	year := now.Year()
	month := now.Month()
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2000 || n > 2100 {
			response.BadRequest(c, 10001, "year 无效")
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			response.BadRequest(c, 10001, "month 无效")
			return
		}
		month = time.Month(n)
	}

	buf, filename, err := h.exportSvc.ExportMonthly(c.Request.Context(), studentID, year, month)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "学生不存在")
	case errors.Is(err, service.ErrExportNoRecords):
		response.NotFound(c, 16101, "该月份暂无考勤记录")
	default:
		response.InternalError(c)
	}
}
