package dto

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	Name       string `json:"name"        binding:"required,max=50"`
	Grade      string `json:"grade"       binding:"omitempty,max=20"`
	SeatNumber string `json:"seat_number" binding:"omitempty,max=10"`
	Phone      string `json:"phone"       binding:"omitempty,max=20"`
}

// UpdateStudentRequest 更新学生请求（指针字段表示可选更新）
type UpdateStudentRequest struct {
	Name       *string `json:"name"        binding:"omitempty,max=50"`
	Grade      *string `json:"grade"       binding:"omitempty,max=20"`
	SeatNumber *string `json:"seat_number" binding:"omitempty,max=10"`
	Phone      *string `json:"phone"       binding:"omitempty,max=20"`
	IsActive   *bool   `json:"is_active"`
}

// StudentResponse 学生信息响应
type StudentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Grade      string `json:"grade,omitempty"`
	SeatNumber string `json:"seat_number,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// ListStudentsRequest 学生列表查询参数
type ListStudentsRequest struct {
	PaginationRequest
	ActiveOnly bool `form:"active_only"`
}
