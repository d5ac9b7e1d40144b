package repository

import (
	"context"

	"gorm.io/gorm"

	"academy-portal/backend/internal/model"
)

// TimetableRepository 学生周课表数据访问接口
type TimetableRepository interface {
	GetByStudent(ctx context.Context, studentID string) (*model.StudentTimetable, error)
	ListByStudents(ctx context.Context, studentIDs []string) ([]model.StudentTimetable, error)
	Upsert(ctx context.Context, tt *model.StudentTimetable) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) GetByStudent(ctx context.Context, studentID string) (*model.StudentTimetable, error) {
	var tt model.StudentTimetable
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&tt).Error
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *timetableRepo) ListByStudents(ctx context.Context, studentIDs []string) ([]model.StudentTimetable, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	var tts []model.StudentTimetable
	err := r.db.WithContext(ctx).Where("student_id IN ?", studentIDs).Find(&tts).Error
	return tts, err
}

func (r *timetableRepo) Upsert(ctx context.Context, tt *model.StudentTimetable) error {
	var existing model.StudentTimetable
	err := r.db.WithContext(ctx).Where("student_id = ?", tt.StudentID).First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(tt).Error
		}
		return err
	}
	tt.TimetableID = existing.TimetableID
	tt.Version = existing.Version
	return r.db.WithContext(ctx).Save(tt).Error
}
