package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/model"
	"academy-portal/backend/internal/repository"
)

var ErrStudentNotFound = errors.New("学生不存在")

// StudentService 学生管理业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
	List(ctx context.Context, req *dto.ListStudentsRequest) ([]dto.StudentResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id string, deletedBy string) error
}

type studentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, logger: logger}
}

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	student := &model.Student{
		Name:     req.Name,
		Grade:    req.Grade,
		SeatNo:   req.SeatNumber,
		Phone:    req.Phone,
		IsActive: true,
	}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *studentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *studentService) List(ctx context.Context, req *dto.ListStudentsRequest) ([]dto.StudentResponse, int64, error) {
	students, total, err := s.repo.Student.ListPage(ctx, req.ActiveOnly, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}
	resp := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		resp = append(resp, toStudentResponse(&students[i]))
	}
	return resp, total, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Grade != nil {
		student.Grade = *req.Grade
	}
	if req.SeatNumber != nil {
		student.SeatNo = *req.SeatNumber
	}
	if req.Phone != nil {
		student.Phone = *req.Phone
	}
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}

	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生失败", zap.Error(err))
		return nil, err
	}
	resp := toStudentResponse(student)
	return &resp, nil
}

func (s *studentService) Delete(ctx context.Context, id string, deletedBy string) error {
	if _, err := s.repo.Student.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	return s.repo.Student.Delete(ctx, id, deletedBy)
}

func toStudentResponse(s *model.Student) dto.StudentResponse {
	return dto.StudentResponse{
		ID:         s.StudentID,
		Name:       s.Name,
		Grade:      s.Grade,
		SeatNumber: s.SeatNo,
		Phone:      s.Phone,
		IsActive:   s.IsActive,
	}
}
