package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academy-portal/backend/config"
	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/model"
	"academy-portal/backend/internal/repository"
	pkgerrors "academy-portal/backend/pkg/errors"
	"academy-portal/backend/pkg/redis"
)

var (
	ErrAlreadyCheckedIn  = errors.New("今日已入馆")
	ErrNotCheckedIn      = errors.New("今日尚未入馆")
	ErrAlreadyCheckedOut = errors.New("今日已离馆")
	ErrSegmentOpen       = errors.New("存在未结束的外出段")
	ErrNoOpenSegment     = errors.New("没有进行中的外出段")
	ErrConcurrentUpdate  = errors.New("记录已被其他操作修改，请重试")
)

// 占用网格缓存
const (
	occupancyCacheKeyFmt = "occupancy:%s" // occupancy:<date>
	occupancyCacheTTL    = 30 * time.Second
	occupancySlotMin     = 30 // 网格槽宽（分钟）
)

// AttendanceService 考勤业务接口
type AttendanceService interface {
	CheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.DailySummaryResponse, error)
	CheckOut(ctx context.Context, req *dto.CheckOutRequest) (*dto.DailySummaryResponse, error)
	StartSegment(ctx context.Context, req *dto.StartSegmentRequest) error
	EndSegment(ctx context.Context, req *dto.EndSegmentRequest) error
	// SetStatus 人工覆盖出勤状态；"normal" 表示清除迟到/缺席标记
	SetStatus(ctx context.Context, req *dto.SetStatusRequest) error
	GetLiveStatus(ctx context.Context, studentID string) (*dto.SeatStatusResponse, error)
	ListSeatStatuses(ctx context.Context) ([]dto.SeatStatusResponse, error)
	OccupancyGrid(ctx context.Context, date time.Time) (*dto.OccupancyGridResponse, error)
	DailySummary(ctx context.Context, studentID string, date time.Time) (*dto.DailySummaryResponse, error)
	RangeSummary(ctx context.Context, studentID string, from, to time.Time) (*dto.RangeSummaryResponse, error)
}

type attendanceService struct {
	cfg    *config.Config
	repo   *repository.Repository
	rdb    *redis.Client
	logger *zap.Logger

	nowFn func() time.Time // 测试时可固定时钟
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	cfg *config.Config,
	repo *repository.Repository,
	rdb *redis.Client,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		cfg:    cfg,
		repo:   repo,
		rdb:    rdb,
		logger: logger,
		nowFn:  time.Now,
	}
}

// ── 打卡 ──

func (s *attendanceService) CheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.DailySummaryResponse, error) {
	now := s.nowFn()
	clock := s.effectiveClock(req.Time, now)

	rec, err := s.todayRecord(ctx, req.StudentID, now)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		// 首次打卡创建记录；监控器可能已为旷到学生插入过纯状态行，
		// 那种行走更新分支
		rec = &model.AttendanceRecord{
			StudentID:  req.StudentID,
			RecordDate: dateTruncate(now),
			Segments:   model.SegmentList{},
		}
		in := clock.String()
		rec.CheckIn = &in
		if err := s.repo.Attendance.Create(ctx, rec); err != nil {
			s.logger.Error("创建考勤记录失败", zap.Error(err))
			return nil, err
		}
		return s.summarize(rec, now), nil
	}

	if rec.CheckIn != nil && rec.CheckOut == nil {
		return nil, ErrAlreadyCheckedIn
	}

	if rec.CheckIn == nil {
		in := clock.String()
		rec.CheckIn = &in
	} else {
		// 离馆后再次入馆：离馆间隔补记为外出段再恢复在座，
		// 净时长口径下该间隔不计入在馆时间
		out := *rec.CheckOut
		if in := clock.String(); in > out {
			rec.Segments = append(rec.Segments, model.ActivitySegment{
				Category: model.CategoryOuting,
				Start:    out,
				End:      &in,
			})
		}
		rec.CheckOut = nil
	}
	if err := s.updateRecord(ctx, rec); err != nil {
		return nil, err
	}
	return s.summarize(rec, now), nil
}

func (s *attendanceService) CheckOut(ctx context.Context, req *dto.CheckOutRequest) (*dto.DailySummaryResponse, error) {
	now := s.nowFn()
	clock := s.effectiveClock(req.Time, now)

	rec, err := s.todayRecord(ctx, req.StudentID, now)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.CheckIn == nil {
		return nil, ErrNotCheckedIn
	}
	if rec.CheckOut != nil {
		return nil, ErrAlreadyCheckedOut
	}

	// 离馆前结清未关闭的外出段
	end := clock.String()
	for i := range rec.Segments {
		if rec.Segments[i].End == nil {
			rec.Segments[i].End = &end
		}
	}
	rec.CheckOut = &end
	rec.ManualOut = false

	if err := s.updateRecord(ctx, rec); err != nil {
		return nil, err
	}
	return s.summarize(rec, now), nil
}

// ── 外出段 ──

func (s *attendanceService) StartSegment(ctx context.Context, req *dto.StartSegmentRequest) error {
	now := s.nowFn()
	clock := s.effectiveClock(req.Time, now)

	rec, err := s.todayRecord(ctx, req.StudentID, now)
	if err != nil {
		return err
	}
	if rec == nil || rec.CheckIn == nil || rec.CheckOut != nil {
		return ErrNotCheckedIn
	}
	for _, seg := range rec.Segments {
		if seg.End == nil {
			return ErrSegmentOpen
		}
	}

	rec.Segments = append(rec.Segments, model.ActivitySegment{
		Category: req.Category,
		Start:    clock.String(),
	})
	if req.Category == model.CategoryOuting {
		rec.ManualOut = true
	}
	return s.updateRecord(ctx, rec)
}

func (s *attendanceService) EndSegment(ctx context.Context, req *dto.EndSegmentRequest) error {
	now := s.nowFn()
	clock := s.effectiveClock(req.Time, now)

	rec, err := s.todayRecord(ctx, req.StudentID, now)
	if err != nil {
		return err
	}
	if rec == nil {
		return ErrNotCheckedIn
	}

	end := clock.String()
	closed := false
	for i := range rec.Segments {
		if rec.Segments[i].End == nil {
			rec.Segments[i].End = &end
			closed = true
		}
	}
	if !closed {
		return ErrNoOpenSegment
	}
	rec.ManualOut = false
	return s.updateRecord(ctx, rec)
}

// ── 状态覆写 ──

func (s *attendanceService) SetStatus(ctx context.Context, req *dto.SetStatusRequest) error {
	date := s.nowFn()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return ErrInvalidDate
		}
		date = parsed
	}

	status := req.Status
	if status == "normal" {
		status = "" // 清除标记；持久层以空串表示正常
	}
	return s.repo.Attendance.SetStatus(ctx, req.StudentID, date, status)
}

// ── 实时状态 ──

func (s *attendanceService) GetLiveStatus(ctx context.Context, studentID string) (*dto.SeatStatusResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	now := s.nowFn()
	rec, err := s.todayRecord(ctx, studentID, now)
	if err != nil {
		return nil, err
	}

	tt, err := s.repo.Timetable.GetByStudent(ctx, studentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	resp := s.resolveStudent(student, rec, tt, now)
	return &resp, nil
}

func (s *attendanceService) ListSeatStatuses(ctx context.Context) ([]dto.SeatStatusResponse, error) {
	students, err := s.repo.Student.List(ctx, true)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	records, err := s.repo.Attendance.ListByDate(ctx, now)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}
	timetables := s.timetablesByStudent(ctx, students)

	resp := make([]dto.SeatStatusResponse, 0, len(students))
	for i := range students {
		id := students[i].StudentID
		resp = append(resp, s.resolveStudent(&students[i], byStudent[id], timetables[id], now))
	}
	return resp, nil
}

// timetablesByStudent 批量预载课表；查询失败按无课处理
func (s *attendanceService) timetablesByStudent(ctx context.Context, students []model.Student) map[string]*model.StudentTimetable {
	ids := make([]string, 0, len(students))
	for i := range students {
		ids = append(ids, students[i].StudentID)
	}
	tts, err := s.repo.Timetable.ListByStudents(ctx, ids)
	if err != nil {
		s.logger.Warn("批量查询课表失败，按无课推导状态", zap.Error(err))
		return nil
	}
	byStudent := make(map[string]*model.StudentTimetable, len(tts))
	for i := range tts {
		byStudent[tts[i].StudentID] = &tts[i]
	}
	return byStudent
}

// resolveStudent 推导单个学生的实时座位状态
//
// 未入馆或已离馆一律为 EMPTY，优先于分区推导：学生人不在馆时日程上
// 的课程/用餐状态没有意义
func (s *attendanceService) resolveStudent(student *model.Student, rec *model.AttendanceRecord, tt *model.StudentTimetable, now time.Time) dto.SeatStatusResponse {
	resp := dto.SeatStatusResponse{
		StudentID:  student.StudentID,
		Name:       student.Name,
		SeatNumber: student.SeatNo,
		Status:     SeatEmpty.String(),
	}
	if rec != nil {
		if rec.CheckIn != nil {
			resp.CheckIn = *rec.CheckIn
		}
		if rec.CheckOut != nil {
			resp.CheckOut = *rec.CheckOut
		}
		if rec.Status != "" {
			resp.Attendance = rec.Status
		} else if rec.CheckIn != nil {
			resp.Attendance = "normal"
		}
	}

	if rec == nil || rec.CheckIn == nil || rec.CheckOut != nil {
		return resp
	}

	clock := ClockOf(now)
	blocks := s.liveBlocks(student.StudentID, rec, tt, now, clock)
	manualOut := rec.ManualOut || hasOpenOuting(rec.Segments)
	resp.Status = ResolveSeatStatus(clock, blocks, manualOut, s.cfg.Attendance.BufferMin).String()
	return resp
}

// liveBlocks 构造状态推导用的区块集：日分区 + 进行中的用餐段
func (s *attendanceService) liveBlocks(studentID string, rec *model.AttendanceRecord, tt *model.StudentTimetable, now time.Time, clock TimeOfDay) []ScheduleBlock {
	day := DayOf(now)
	window := WindowFromConfig(&s.cfg.Attendance)

	var academy []ScheduleBlock
	if tt != nil {
		academy = NormalizeForDay(tt.Versions, now, day, s.cfg.Attendance.StrictDays)
	}

	blocks, err := PartitionDay(day, academy, window)
	if err != nil {
		// 重叠课表无法分区时退化为纯课程区块推导
		s.logger.Warn("日分区失败，退化为课程区块推导",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
		blocks = academy
	}

	// 进行中的用餐段叠加为用餐区块（[start, now] 近似为 [start, now+1)）
	for _, seg := range rec.Segments {
		if seg.Category != model.CategoryMeal || seg.End != nil {
			continue
		}
		if start, ok := ParseClock(seg.Start); ok && start <= clock {
			blocks = append(blocks, ScheduleBlock{
				Day:   day,
				Start: start,
				End:   clock + 1,
				Kind:  BlockMeal,
			})
		}
	}
	return blocks
}

// ── 占用网格 ──

func (s *attendanceService) OccupancyGrid(ctx context.Context, date time.Time) (*dto.OccupancyGridResponse, error) {
	dateStr := date.Format("2006-01-02")
	cacheKey := fmt.Sprintf(occupancyCacheKeyFmt, dateStr)

	// 网格计算量随学生数线性增长，前台大屏轮询频繁，短 TTL 缓存足够
	if s.rdb != nil {
		var cached dto.OccupancyGridResponse
		if hit, err := s.rdb.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	students, err := s.repo.Student.List(ctx, true)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.Attendance.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[string]*model.AttendanceRecord, len(records))
	for i := range records {
		byStudent[records[i].StudentID] = &records[i]
	}
	timetables := s.timetablesByStudent(ctx, students)

	window := WindowFromConfig(&s.cfg.Attendance)
	day := DayOf(date)
	buf := TimeOfDay(s.cfg.Attendance.BufferMin)
	nowClock := ClockOf(s.nowFn())

	resp := &dto.OccupancyGridResponse{
		Date:  dateStr,
		Open:  window.Open.String(),
		Close: window.Close.String(),
	}

	// 预先算好每个学生的在馆区间与学院区块
	type studentSpan struct {
		student *model.Student
		in, out TimeOfDay
		academy []ScheduleBlock
	}
	spans := make([]studentSpan, 0, len(students))
	for i := range students {
		rec := byStudent[students[i].StudentID]
		if rec == nil || rec.CheckIn == nil {
			continue
		}
		in, ok := ParseClockPtr(rec.CheckIn)
		if !ok {
			continue
		}
		out := nowClock
		if rec.CheckOut != nil {
			if o, ok := ParseClockPtr(rec.CheckOut); ok {
				out = o
			}
		}
		span := studentSpan{student: &students[i], in: in, out: out}
		if tt := timetables[students[i].StudentID]; tt != nil {
			span.academy = NormalizeForDay(tt.Versions, date, day, s.cfg.Attendance.StrictDays)
		}
		spans = append(spans, span)
	}

	for slot := window.Open; slot < window.Close; slot += occupancySlotMin {
		out := dto.OccupancySlot{Time: slot.String(), Students: make([]dto.OccupancyStudent, 0)}
		for _, sp := range spans {
			if slot < sp.in || slot >= sp.out {
				continue
			}
			// 槽起点落在学院课内的学生不占自习座位
			inAcademy := false
			marker := ""
			for _, b := range sp.academy {
				if b.Contains(slot) {
					inAcademy = true
					break
				}
				if slot >= b.Start-buf && slot < b.Start {
					marker = "BEFORE"
				} else if slot >= b.End && slot < b.End+buf {
					marker = "AFTER"
				}
			}
			if inAcademy {
				continue
			}
			out.Students = append(out.Students, dto.OccupancyStudent{
				StudentID: sp.student.StudentID,
				Name:      sp.student.Name,
				Marker:    marker,
			})
		}
		resp.Slots = append(resp.Slots, out)
	}

	if s.rdb != nil {
		if err := s.rdb.SetJSON(ctx, cacheKey, resp, occupancyCacheTTL); err != nil {
			s.logger.Warn("占用网格写缓存失败", zap.Error(err))
		}
	}
	return resp, nil
}

// ── 时长汇总 ──

func (s *attendanceService) DailySummary(ctx context.Context, studentID string, date time.Time) (*dto.DailySummaryResponse, error) {
	rec, err := s.repo.Attendance.GetByStudentAndDate(ctx, studentID, date)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 无记录=无出勤，返回零值汇总而非 404
			return &dto.DailySummaryResponse{
				StudentID: studentID,
				Date:      date.Format("2006-01-02"),
				Status:    "absent",
			}, nil
		}
		return nil, err
	}
	return s.summarize(rec, s.nowFn()), nil
}

func (s *attendanceService) RangeSummary(ctx context.Context, studentID string, from, to time.Time) (*dto.RangeSummaryResponse, error) {
	records, err := s.repo.Attendance.ListByStudentRange(ctx, studentID, from, to)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	resp := &dto.RangeSummaryResponse{
		StudentID: studentID,
		From:      from.Format("2006-01-02"),
		To:        to.Format("2006-01-02"),
		Days:      make([]dto.DailySummaryResponse, 0, len(records)),
	}
	for i := range records {
		day := s.summarize(&records[i], now)
		resp.TotalMinutes += day.NetMinutes
		resp.Days = append(resp.Days, *day)
	}
	return resp, nil
}

// summarize 将考勤记录换算为当日汇总
func (s *attendanceService) summarize(rec *model.AttendanceRecord, now time.Time) *dto.DailySummaryResponse {
	clock := ClockOf(now)
	resp := &dto.DailySummaryResponse{
		StudentID:  rec.StudentID,
		Date:       rec.RecordDate.Format("2006-01-02"),
		NetMinutes: CalcNetStudyMinutes(rec, clock),
		ByCategory: CalcDurationByCategory(rec.Segments, clock),
		Status:     rec.Status,
	}
	if rec.CheckIn != nil {
		resp.CheckIn = *rec.CheckIn
	}
	if rec.CheckOut != nil {
		resp.CheckOut = *rec.CheckOut
	}
	if resp.Status == "" {
		if rec.CheckIn != nil {
			resp.Status = "normal"
		} else {
			resp.Status = "absent"
		}
	}
	return resp
}

// ── 内部辅助 ──

// todayRecord 取学生当日记录；不存在返回 (nil, nil)
func (s *attendanceService) todayRecord(ctx context.Context, studentID string, now time.Time) (*model.AttendanceRecord, error) {
	rec, err := s.repo.Attendance.GetByStudentAndDate(ctx, studentID, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// effectiveClock 请求指定时刻优先；缺失或格式非法时用服务器时钟
func (s *attendanceService) effectiveClock(req string, now time.Time) TimeOfDay {
	if t, ok := ParseClock(req); ok {
		return t
	}
	return ClockOf(now)
}

// updateRecord 乐观锁更新，版本冲突转为业务错误
func (s *attendanceService) updateRecord(ctx context.Context, rec *model.AttendanceRecord) error {
	if err := s.repo.Attendance.Update(ctx, rec); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrConcurrentUpdate
		}
		s.logger.Error("更新考勤记录失败",
			zap.String("record_id", rec.RecordID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func hasOpenOuting(segments model.SegmentList) bool {
	for _, seg := range segments {
		if seg.Category == model.CategoryOuting && seg.End == nil {
			return true
		}
	}
	return false
}

// dateTruncate 截断到日期（零点），落库 DATE 列
func dateTruncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
