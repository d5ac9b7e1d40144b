package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academy-portal/backend/config"
	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/model"
	"academy-portal/backend/internal/repository"
)

var (
	ErrTimetableNotFound = errors.New("学生课表不存在")
	ErrInvalidDate       = errors.New("日期格式无效")
)

// TimetableService 课表业务接口
type TimetableService interface {
	// SaveVersion 追加一个课表版本；effective_date 为空表示立即生效
	SaveVersion(ctx context.Context, studentID string, req *dto.SaveTimetableRequest) error
	// GetResolved 返回在给定时点生效版本的归一化周课表
	GetResolved(ctx context.Context, studentID string, at time.Time) (*dto.WeeklyScheduleResponse, error)
	// DayPartition 返回某日覆盖整个营业窗口的分块（自习/学院交替）
	DayPartition(ctx context.Context, studentID string, date time.Time) (*dto.DayPartitionResponse, error)
	// ImportICS 从学院日历 URL 导入某科目的周时段并追加为新版本
	ImportICS(ctx context.Context, studentID string, req *dto.ImportICSRequest) (*dto.WeeklyScheduleResponse, error)
}

type timetableService struct {
	cfg    *config.Config
	repo   *repository.Repository
	logger *zap.Logger

	nowFn func() time.Time
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		nowFn:  time.Now,
	}
}

func (s *timetableService) SaveVersion(ctx context.Context, studentID string, req *dto.SaveTimetableRequest) error {
	if _, err := s.repo.Student.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	tt, err := s.repo.Timetable.GetByStudent(ctx, studentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		tt = &model.StudentTimetable{StudentID: studentID}
	}

	// 版本只追加；同生效日期的旧版本被新版本取代
	versions := tt.Versions[:0:0]
	for _, v := range tt.Versions {
		if v.EffectiveDate != req.EffectiveDate {
			versions = append(versions, v)
		}
	}
	versions = append(versions, model.TimetableVersion{
		EffectiveDate: req.EffectiveDate,
		Data:          req.Timetable,
	})
	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].EffectiveDate < versions[j].EffectiveDate
	})
	tt.Versions = versions

	if err := s.repo.Timetable.Upsert(ctx, tt); err != nil {
		s.logger.Error("保存课表版本失败",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *timetableService) GetResolved(ctx context.Context, studentID string, at time.Time) (*dto.WeeklyScheduleResponse, error) {
	tt, err := s.repo.Timetable.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}

	raw := ResolveTimetableVersion(tt.Versions, at)
	weekly, skipped := NormalizeWeeklyTimetable(raw, s.cfg.Attendance.StrictDays)

	resp := &dto.WeeklyScheduleResponse{
		StudentID: studentID,
		Slots:     make([]dto.TimeSlotResponse, 0),
		Skipped:   skipped,
	}
	for day := Sunday; day <= Saturday; day++ {
		for _, b := range weekly[day] {
			resp.Slots = append(resp.Slots, dto.TimeSlotResponse{
				Day:     int(day),
				Start:   b.Start.String(),
				End:     b.End.String(),
				Subject: b.Subject,
			})
		}
	}
	return resp, nil
}

func (s *timetableService) DayPartition(ctx context.Context, studentID string, date time.Time) (*dto.DayPartitionResponse, error) {
	day := DayOf(date)
	blocks := s.blocksForDay(ctx, studentID, date, day)

	window := WindowFromConfig(&s.cfg.Attendance)
	partition, err := PartitionDay(day, blocks, window)
	if err != nil {
		s.logger.Warn("日分区失败",
			zap.String("student_id", studentID),
			zap.String("date", date.Format("2006-01-02")),
			zap.Error(err),
		)
		return nil, err
	}

	resp := &dto.DayPartitionResponse{
		StudentID: studentID,
		Date:      date.Format("2006-01-02"),
		Open:      window.Open.String(),
		Close:     window.Close.String(),
		Blocks:    make([]dto.BlockResponse, 0, len(partition)),
	}
	for _, b := range partition {
		resp.Blocks = append(resp.Blocks, dto.BlockResponse{
			Start:   b.Start.String(),
			End:     b.End.String(),
			Kind:    b.Kind.String(),
			Subject: b.Subject,
		})
	}
	return resp, nil
}

func (s *timetableService) ImportICS(ctx context.Context, studentID string, req *dto.ImportICSRequest) (*dto.WeeklyScheduleResponse, error) {
	body, err := FetchICSContent(req.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	slots, err := ParseICSTimetable(body)
	if err != nil {
		return nil, err
	}

	// 以当前生效版本为底，替换目标科目的时段
	var base model.RawTimetable
	tt, err := s.repo.Timetable.GetByStudent(ctx, studentID)
	if err == nil {
		base = ResolveTimetableVersion(tt.Versions, s.nowFn())
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	merged := make(model.RawTimetable, len(base)+1)
	for subject, subjectSlots := range base {
		if subject != req.Subject {
			merged[subject] = subjectSlots
		}
	}
	merged[req.Subject] = slots

	if err := s.SaveVersion(ctx, studentID, &dto.SaveTimetableRequest{
		EffectiveDate: req.EffectiveDate,
		Timetable:     merged,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("ICS 课表导入完成",
		zap.String("student_id", studentID),
		zap.String("subject", req.Subject),
		zap.Int("slots", len(slots)),
	)
	return s.GetResolved(ctx, studentID, s.nowFn())
}

// blocksForDay 取学生某日的学院区块；无课表时返回空（全天自习）
func (s *timetableService) blocksForDay(ctx context.Context, studentID string, date time.Time, day DayOfWeek) []ScheduleBlock {
	tt, err := s.repo.Timetable.GetByStudent(ctx, studentID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("查询课表失败，按无课处理",
				zap.String("student_id", studentID),
				zap.Error(err),
			)
		}
		return nil
	}
	return NormalizeForDay(tt.Versions, date, day, s.cfg.Attendance.StrictDays)
}
