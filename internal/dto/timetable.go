package dto

import "academy-portal/backend/internal/model"

// SaveTimetableRequest 保存课表版本请求
// 同一学生追加一个新版本；EffectiveDate 为空表示立即生效
type SaveTimetableRequest struct {
	EffectiveDate string             `json:"effective_date" binding:"omitempty,datetime=2006-01-02"`
	Timetable     model.RawTimetable `json:"timetable"      binding:"required"`
}

// ImportICSRequest 从 ICS 日历导入课表请求
type ImportICSRequest struct {
	URL           string `json:"url"            binding:"required,url"`
	Subject       string `json:"subject"        binding:"required,max=50"`
	EffectiveDate string `json:"effective_date" binding:"omitempty,datetime=2006-01-02"`
}

// TimeSlotResponse 单个时间段响应
type TimeSlotResponse struct {
	Day     int    `json:"day"` // 0=周日 … 6=周六
	Start   string `json:"start"`
	End     string `json:"end"`
	Subject string `json:"subject,omitempty"`
}

// WeeklyScheduleResponse 归一化后的周课表响应
type WeeklyScheduleResponse struct {
	StudentID string             `json:"student_id"`
	Slots     []TimeSlotResponse `json:"slots"`
	Skipped   []string           `json:"skipped,omitempty"` // 无法识别的星期标记
}

// BlockResponse 单个日程块响应
type BlockResponse struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Kind    string `json:"kind"` // STUDY_HALL / ACADEMY / MEAL
	Subject string `json:"subject,omitempty"`
}

// DayPartitionResponse 某日的完整分块响应
type DayPartitionResponse struct {
	StudentID string          `json:"student_id"`
	Date      string          `json:"date"`
	Open      string          `json:"open"`
	Close     string          `json:"close"`
	Blocks    []BlockResponse `json:"blocks"`
}
