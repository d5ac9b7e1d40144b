package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"academy-portal/backend/internal/model"
	pkgerrors "academy-portal/backend/pkg/errors"
)

// AttendanceRepository 考勤记录数据访问接口
type AttendanceRepository interface {
	Create(ctx context.Context, rec *model.AttendanceRecord) error
	GetByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error)
	ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error)
	ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]model.AttendanceRecord, error)
	// Update 带乐观锁的整行更新；版本不匹配返回 pkg/errors.ErrOptimisticLock
	Update(ctx context.Context, rec *model.AttendanceRecord) error
	// SetStatus 键控局部更新：仅写 status 字段（迟到监控与手动覆写共用）
	SetStatus(ctx context.Context, studentID string, date time.Time, status string) error
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func dateOnly(t time.Time) string { return t.Format("2006-01-02") }

func (r *attendanceRepo) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *attendanceRepo) GetByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error) {
	var rec model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND record_date = ?", studentID, dateOnly(date)).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *attendanceRepo) ListByDate(ctx context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("record_date = ?", dateOnly(date)).
		Find(&recs).Error
	return recs, err
}

func (r *attendanceRepo) ListByStudentRange(ctx context.Context, studentID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var recs []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND record_date >= ? AND record_date <= ?",
			studentID, dateOnly(from), dateOnly(to)).
		Order("record_date ASC").
		Find(&recs).Error
	return recs, err
}

// Update 按 version 条件更新，实现 per-(student,date) 乐观并发控制
// 监控与打卡动作可能同时写同一条记录，最后写赢之前先检测版本冲突
func (r *attendanceRepo) Update(ctx context.Context, rec *model.AttendanceRecord) error {
	currentVersion := rec.Version
	rec.Version = currentVersion + 1

	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("record_id = ? AND version = ?", rec.RecordID, currentVersion).
		Updates(map[string]interface{}{
			"check_in":    rec.CheckIn,
			"check_out":   rec.CheckOut,
			"segments":    rec.Segments,
			"academy_in":  rec.AcademyIn,
			"academy_out": rec.AcademyOut,
			"status":      rec.Status,
			"manual_out":  rec.ManualOut,
			"updated_by":  rec.UpdatedBy,
			"version":     rec.Version,
		})
	if result.Error != nil {
		rec.Version = currentVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		rec.Version = currentVersion
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// SetStatus 不存在记录时插入仅含状态的记录（未到学生当日还没有打卡行）
func (r *attendanceRepo) SetStatus(ctx context.Context, studentID string, date time.Time, status string) error {
	result := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("student_id = ? AND record_date = ?", studentID, dateOnly(date)).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.AttendanceRecord{
		StudentID:  studentID,
		RecordDate: date,
		Segments:   model.SegmentList{},
		Status:     status,
	}).Error
}
