package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/service"
	"academy-portal/backend/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// Save 保存课表版本
// PUT /api/v1/students/:id/timetable
func (h *TimetableHandler) Save(c *gin.Context) {
	var req dto.SaveTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.timetableSvc.SaveVersion(c.Request.Context(), c.Param("id"), &req); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, 12001, "学生不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// GetResolved 查询当前生效的归一化周课表
// GET /api/v1/students/:id/timetable?at=2026-03-02
func (h *TimetableHandler) GetResolved(c *gin.Context) {
	at := time.Now()
	if v := c.Query("at"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, 10001, "日期格式无效")
			return
		}
		at = parsed
	}

	result, err := h.timetableSvc.GetResolved(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		if errors.Is(err, service.ErrTimetableNotFound) {
			response.NotFound(c, 13001, "学生课表不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// DayPartition 查询某日的完整分块（自习/学院交替）
// GET /api/v1/students/:id/timetable/partition?date=2026-03-02
func (h *TimetableHandler) DayPartition(c *gin.Context) {
	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, 10001, "日期格式无效")
			return
		}
		date = parsed
	}

	result, err := h.timetableSvc.DayPartition(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		if errors.Is(err, service.ErrOverlappingBlocks) {
			response.Conflict(c, 13002, "课表存在时段重叠")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ImportICS 从学院日历导入课表
// POST /api/v1/students/:id/timetable/import-ics
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	var req dto.ImportICSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.ImportICS(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, 12001, "学生不存在")
			return
		}
		response.BadRequest(c, 13003, "课表导入失败")
		return
	}
	response.OK(c, result)
}
