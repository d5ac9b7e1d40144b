package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"academy-portal/backend/internal/model"
)

// MonitorAdapter 迟到监控的只读数据面适配器
// 把"记录不存在"归一为 (nil, nil)，监控侧不必关心 gorm 错误语义
type MonitorAdapter struct {
	repo *Repository
}

// NewMonitorAdapter 创建 MonitorAdapter
func NewMonitorAdapter(repo *Repository) *MonitorAdapter {
	return &MonitorAdapter{repo: repo}
}

// ListActiveStudents 当前纳入监控的在读学生
func (a *MonitorAdapter) ListActiveStudents(ctx context.Context) ([]model.Student, error) {
	return a.repo.Student.List(ctx, true)
}

// GetTimetable 学生周课表；无课表返回 nil, nil
func (a *MonitorAdapter) GetTimetable(ctx context.Context, studentID string) (*model.StudentTimetable, error) {
	tt, err := a.repo.Timetable.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tt, nil
}

// GetRecord 当日考勤记录；无记录返回 nil, nil
func (a *MonitorAdapter) GetRecord(ctx context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error) {
	rec, err := a.repo.Attendance.GetByStudentAndDate(ctx, studentID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}
