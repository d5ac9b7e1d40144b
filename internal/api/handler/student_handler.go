package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/service"
	"academy-portal/backend/pkg/response"
)

// StudentHandler 学生管理模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// Create 创建学生
// POST /api/v1/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.studentSvc.Create(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, result)
}

// Get 查询单个学生
// GET /api/v1/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	result, err := h.studentSvc.Get(c.Request.Context(), c.Param("id"))
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

// List 分页查询学生列表
// GET /api/v1/students?active_only=true&page=1&page_size=20
func (h *StudentHandler) List(c *gin.Context) {
	var req dto.ListStudentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, total, err := h.studentSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, result, total, req.GetPage(), req.GetPageSize())
}

// Update 更新学生
// PATCH /api/v1/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.studentSvc.Update(c.Request.Context(), c.Param("id"), &req)
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

// Delete 删除学生（软删除）
// DELETE /api/v1/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.studentSvc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.NotFound(c, 12001, "学生不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
