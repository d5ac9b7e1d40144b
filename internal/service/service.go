package service

import (
	"go.uber.org/zap"

	"academy-portal/backend/config"
	"academy-portal/backend/internal/repository"
	"academy-portal/backend/pkg/jwt"
	"academy-portal/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Student    StudentService
	Timetable  TimetableService
	Attendance AttendanceService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Student:    NewStudentService(repo, logger),
		Timetable:  NewTimetableService(cfg, repo, logger),
		Attendance: NewAttendanceService(cfg, repo, rdb, logger),
		Export:     NewExportService(repo, logger),
	}
}
