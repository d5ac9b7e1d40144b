package repository

import (
	"context"

	"gorm.io/gorm"

	"academy-portal/backend/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	// List 返回全量学生（监控巡检、实时状态等内部路径使用）
	List(ctx context.Context, activeOnly bool) ([]model.Student, error)
	// ListPage 分页查询学生（管理端列表）
	ListPage(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Student, int64, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).Where("student_id = ?", id).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) List(ctx context.Context, activeOnly bool) ([]model.Student, error) {
	var students []model.Student
	db := r.db.WithContext(ctx)
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC").Find(&students).Error
	return students, err
}

func (r *studentRepo) ListPage(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Student, int64, error) {
	var students []model.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Student{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("name ASC").Offset(offset).Limit(limit).Find(&students).Error
	return students, total, err
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}
