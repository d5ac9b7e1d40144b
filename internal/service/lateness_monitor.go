package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"academy-portal/backend/config"
	"academy-portal/backend/internal/model"
)

// ── 迟到监控 ──
//
// 周期性比对"预期到馆时刻"（由课表推导）与实际打卡时刻，标记迟到与
// 未到。监控本身不碰存储：读经由窄接口 MonitorStore，写以 StatusCommand
// 形式交给 StatusSink，由外部存储适配器落库。写入为幂等的置值操作
// （late→late 无副作用），多副本并发运行不影响正确性。

// StatusCommand 状态写回指令：设置 (student, date) 的考勤状态
type StatusCommand struct {
	StudentID string
	Date      time.Time
	Status    string // "late" | "" | "absent"
}

// MonitorStore 监控所需的只读数据面
type MonitorStore interface {
	// ListActiveStudents 当前纳入监控的学生（在读）
	ListActiveStudents(ctx context.Context) ([]model.Student, error)
	// GetTimetable 学生周课表；无课表返回 nil, nil
	GetTimetable(ctx context.Context, studentID string) (*model.StudentTimetable, error)
	// GetRecord 当日考勤记录；无记录返回 nil, nil
	GetRecord(ctx context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error)
}

// StatusSink 状态写回出口
type StatusSink interface {
	Apply(ctx context.Context, cmd StatusCommand) error
}

// StatusSinkFunc 函数式 StatusSink 适配器
type StatusSinkFunc func(ctx context.Context, cmd StatusCommand) error

// Apply 实现 StatusSink
func (f StatusSinkFunc) Apply(ctx context.Context, cmd StatusCommand) error { return f(ctx, cmd) }

// LatenessMonitor 迟到监控器，每个部署进程一个定时循环
type LatenessMonitor struct {
	store        MonitorStore
	sink         StatusSink
	logger       *zap.Logger
	interval     time.Duration
	thresholdMin int
	defaultOpen  TimeOfDay // 当日无学院课程时的预期到馆时刻（营业开门）
	strictDays   bool

	nowFn  func() time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLatenessMonitor 创建迟到监控器
func NewLatenessMonitor(cfg *config.AttendanceConfig, store MonitorStore, sink StatusSink, logger *zap.Logger) *LatenessMonitor {
	openStr := cfg.StandardOpen
	if cfg.ReducedHours {
		openStr = cfg.ReducedOpen
	}
	open, _ := ParseClock(openStr) // 配置加载时已校验格式

	return &LatenessMonitor{
		store:        store,
		sink:         sink,
		logger:       logger,
		interval:     cfg.MonitorInterval,
		thresholdMin: cfg.LateThresholdMin,
		defaultOpen:  open,
		strictDays:   cfg.StrictDays,
		nowFn:        time.Now,
	}
}

// Start 启动监控循环（非阻塞）
func (m *LatenessMonitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.logger.Info("迟到监控已启动",
			zap.Duration("interval", m.interval),
			zap.Int("threshold_min", m.thresholdMin),
		)

		for {
			select {
			case <-ctx.Done():
				m.logger.Info("迟到监控已停止")
				return
			case <-ticker.C:
				m.runOnce(ctx, m.nowFn())
			}
		}
	}()
}

// Stop 停止监控：不再调度新的 tick，等待当前轮结束
// 进行中的写回各自独立完成，跨 tick 无顺序保证（写入幂等）
func (m *LatenessMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// runOnce 执行一轮巡检
func (m *LatenessMonitor) runOnce(ctx context.Context, now time.Time) {
	students, err := m.store.ListActiveStudents(ctx)
	if err != nil {
		m.logger.Error("查询在读学生失败", zap.Error(err))
		return
	}

	nowClock := ClockOf(now)
	day := DayOf(now)
	marked := 0

	for _, st := range students {
		expected := m.expectedArrival(ctx, st.StudentID, now, day)

		rec, err := m.store.GetRecord(ctx, st.StudentID, now)
		if err != nil {
			m.logger.Warn("查询考勤记录失败",
				zap.String("student_id", st.StudentID), zap.Error(err))
			continue
		}

		cmd := evaluateLateness(st.StudentID, now, rec, expected, nowClock, m.thresholdMin)
		if cmd == nil {
			continue
		}
		if err := m.sink.Apply(ctx, *cmd); err != nil {
			m.logger.Error("写回考勤状态失败",
				zap.String("student_id", st.StudentID), zap.Error(err))
			continue
		}
		marked++
	}

	if marked > 0 {
		m.logger.Info("迟到巡检完成", zap.Int("marked", marked), zap.Int("students", len(students)))
	}
}

// expectedArrival 推导预期到馆时刻：当日最后一个学院区块的结束时刻；
// 当日无学院课程则为营业开门时刻
func (m *LatenessMonitor) expectedArrival(ctx context.Context, studentID string, now time.Time, day DayOfWeek) TimeOfDay {
	tt, err := m.store.GetTimetable(ctx, studentID)
	if err != nil || tt == nil {
		return m.defaultOpen
	}

	blocks := NormalizeForDay(tt.Versions, now, day, m.strictDays)
	expected := m.defaultOpen
	found := false
	for _, b := range blocks {
		if !found || b.End > expected {
			expected = b.End
			found = true
		}
	}
	return expected
}

// evaluateLateness 单个学生的迟到判定（纯函数，tick 与测试共用）
//
//   - status=="absent" 为当日终态覆写，直接跳过
//   - 未到：无打卡且 now-expected 超阈值 → "late"
//   - 迟到：有打卡且 checkIn-expected 超阈值 → "late"
//   - 其余不改动。监控只置 "late" 不清除；外部手动清除后若条件仍
//     成立，下一轮会再次标记（单向闩锁口径）
func evaluateLateness(studentID string, date time.Time, rec *model.AttendanceRecord, expected, now TimeOfDay, thresholdMin int) *StatusCommand {
	if rec != nil && rec.Status == "absent" {
		return nil
	}
	if rec != nil && rec.Status == "late" {
		return nil // 重置为 late 是无效写，提前短路
	}

	var checkIn TimeOfDay
	hasCheckIn := false
	if rec != nil {
		checkIn, hasCheckIn = ParseClockPtr(rec.CheckIn)
	}

	late := false
	if !hasCheckIn {
		late = int(now)-int(expected) > thresholdMin
	} else {
		late = int(checkIn)-int(expected) > thresholdMin
	}
	if !late {
		return nil
	}

	return &StatusCommand{StudentID: studentID, Date: date, Status: "late"}
}
