package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/service"
	"academy-portal/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 入馆打卡
// POST /api/v1/attendance/check-in
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.CheckIn(c.Request.Context(), &req)
	if err != nil {
		h.writeAttendanceError(c, err)
		return
	}
	response.OK(c, result)
}

// CheckOut 离馆打卡
// POST /api/v1/attendance/check-out
func (h *AttendanceHandler) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.CheckOut(c.Request.Context(), &req)
	if err != nil {
		h.writeAttendanceError(c, err)
		return
	}
	response.OK(c, result)
}

// StartSegment 开始外出段（用餐/外出）
// POST /api/v1/attendance/segments/start
func (h *AttendanceHandler) StartSegment(c *gin.Context) {
	var req dto.StartSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.attendanceSvc.StartSegment(c.Request.Context(), &req); err != nil {
		h.writeAttendanceError(c, err)
		return
	}
	response.OK(c, nil)
}

// EndSegment 结束外出段
// POST /api/v1/attendance/segments/end
func (h *AttendanceHandler) EndSegment(c *gin.Context) {
	var req dto.EndSegmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.attendanceSvc.EndSegment(c.Request.Context(), &req); err != nil {
		h.writeAttendanceError(c, err)
		return
	}
	response.OK(c, nil)
}

// SetStatus 人工覆盖出勤状态
// POST /api/v1/attendance/status
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.attendanceSvc.SetStatus(c.Request.Context(), &req); err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			response.BadRequest(c, 10001, "日期格式无效")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// GetLiveStatus 查询单个学生的实时座位状态
// GET /api/v1/attendance/students/:id/status
func (h *AttendanceHandler) GetLiveStatus(c *gin.Context) {
	result, err := h.attendanceSvc.GetLiveStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, 12001, "学生不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// ListSeatStatuses 查询全部在读学生的实时座位状态（前台大屏）
// GET /api/v1/attendance/seats
func (h *AttendanceHandler) ListSeatStatuses(c *gin.Context) {
	result, err := h.attendanceSvc.ListSeatStatuses(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// OccupancyGrid 查询自习室占用网格
// GET /api/v1/attendance/occupancy?date=2026-03-02
func (h *AttendanceHandler) OccupancyGrid(c *gin.Context) {
	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, 10001, "日期格式无效")
			return
		}
		date = parsed
	}

	result, err := h.attendanceSvc.OccupancyGrid(c.Request.Context(), date)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// DailySummary 查询某学生某日的学习时长汇总
// GET /api/v1/attendance/students/:id/summary?date=2026-03-02
func (h *AttendanceHandler) DailySummary(c *gin.Context) {
	date := time.Now()
	if v := c.Query("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(c, 10001, "日期格式无效")
			return
		}
		date = parsed
	}

	result, err := h.attendanceSvc.DailySummary(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// RangeSummary 查询某学生某区间的学习时长汇总
// GET /api/v1/attendance/students/:id/summary/range?from=2026-03-01&to=2026-03-31
func (h *AttendanceHandler) RangeSummary(c *gin.Context) {
	var req dto.RangeSummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		response.BadRequest(c, 10001, "日期格式无效")
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil || to.Before(from) {
		response.BadRequest(c, 10001, "日期区间无效")
		return
	}

	result, err := h.attendanceSvc.RangeSummary(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// writeAttendanceError 将考勤业务错误映射为 HTTP 响应
func (h *AttendanceHandler) writeAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyCheckedIn):
		response.Conflict(c, 14001, "今日已入馆")
	case errors.Is(err, service.ErrNotCheckedIn):
		response.Conflict(c, 14002, "今日尚未入馆")
	case errors.Is(err, service.ErrAlreadyCheckedOut):
		response.Conflict(c, 14003, "今日已离馆")
	case errors.Is(err, service.ErrSegmentOpen):
		response.Conflict(c, 14004, "存在未结束的外出段")
	case errors.Is(err, service.ErrNoOpenSegment):
		response.Conflict(c, 14005, "没有进行中的外出段")
	case errors.Is(err, service.ErrConcurrentUpdate):
		response.Conflict(c, 14006, "记录已被其他操作修改，请重试")
	default:
		response.InternalError(c)
	}
}
