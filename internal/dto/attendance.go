package dto

// CheckInRequest 入馆打卡请求；Time 为空时使用服务器当前时间
type CheckInRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Time      string `json:"time"       binding:"omitempty,len=5"`
}

// CheckOutRequest 离馆打卡请求
type CheckOutRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Time      string `json:"time"       binding:"omitempty,len=5"`
}

// StartSegmentRequest 开始活动段请求
// Category 为科目名（学院课）或保留值 MEAL / OUTING
type StartSegmentRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Category  string `json:"category"   binding:"required,max=50"`
	Time      string `json:"time"       binding:"omitempty,len=5"`
}

// EndSegmentRequest 结束外出段请求
type EndSegmentRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Time      string `json:"time"       binding:"omitempty,len=5"`
}

// SetStatusRequest 人工覆盖出勤状态请求
type SetStatusRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Date      string `json:"date"       binding:"omitempty,datetime=2006-01-02"`
	Status    string `json:"status"     binding:"required,oneof=normal late absent"`
}

// SeatStatusResponse 单个学生的实时座位状态
type SeatStatusResponse struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	SeatNumber string `json:"seat_number,omitempty"`
	Status     string `json:"status"` // EMPTY / PRESENT / MOVE_BEFORE / ACADEMY / MOVE_AFTER / MEAL / OUT
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
	Attendance string `json:"attendance,omitempty"` // normal / late / absent
}

// OccupancyStudent 占用网格中的单个学生标记
type OccupancyStudent struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Marker    string `json:"marker,omitempty"` // BEFORE / AFTER 缓冲期标记
}

// OccupancySlot 占用网格中的单个时间槽
type OccupancySlot struct {
	Time     string             `json:"time"` // 槽起点 "HH:MM"
	Students []OccupancyStudent `json:"students"`
}

// OccupancyGridResponse 自习室占用网格响应
type OccupancyGridResponse struct {
	Date  string          `json:"date"`
	Open  string          `json:"open"`
	Close string          `json:"close"`
	Slots []OccupancySlot `json:"slots"`
}

// DailySummaryResponse 单日学习时长汇总
type DailySummaryResponse struct {
	StudentID  string         `json:"student_id"`
	Date       string         `json:"date"`
	CheckIn    string         `json:"check_in,omitempty"`
	CheckOut   string         `json:"check_out,omitempty"`
	NetMinutes int            `json:"net_minutes"`
	ByCategory map[string]int `json:"by_category,omitempty"`
	Status     string         `json:"status"`
}

// RangeSummaryRequest 区间汇总查询参数
type RangeSummaryRequest struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

// RangeSummaryResponse 区间学习时长汇总
type RangeSummaryResponse struct {
	StudentID    string                 `json:"student_id"`
	From         string                 `json:"from"`
	To           string                 `json:"to"`
	TotalMinutes int                    `json:"total_minutes"`
	Days         []DailySummaryResponse `json:"days"`
}
