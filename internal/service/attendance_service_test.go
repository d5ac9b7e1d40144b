package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"academy-portal/backend/config"
	"academy-portal/backend/internal/dto"
	"academy-portal/backend/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		Attendance: config.AttendanceConfig{
			ReducedHours:     false,
			StandardOpen:     "15:30",
			ReducedOpen:      "13:00",
			Close:            "22:00",
			BufferMin:        15,
			LateThresholdMin: 15,
			MonitorInterval:  time.Minute,
		},
	}
}

// 固定测试时钟：2026-03-02（周一）
func testNow(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.Local)
}

func setupAttendanceService(t *testing.T, now time.Time) (AttendanceService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	svc := NewAttendanceService(testConfig(), repos.toRepository(), nil, zap.NewNop())
	svc.(*attendanceService).nowFn = func() time.Time { return now }
	return svc, repos
}

func seedStudent(repos *testRepos, id, name string) {
	repos.student.students[id] = &model.Student{
		StudentID: id, Name: name, SeatNo: "A1", IsActive: true,
	}
}

func TestCheckInCreatesRecord(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(15, 40))
	seedStudent(repos, "stu-1", "김민준")

	got, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{StudentID: "stu-1"})
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.CheckIn != "15:40" {
		t.Errorf("期望入馆 15:40，实际=%s", got.CheckIn)
	}
	if got.Status != "normal" {
		t.Errorf("期望 normal，实际=%s", got.Status)
	}

	rec, err := repos.attendance.GetByStudentAndDate(context.Background(), "stu-1", testNow(15, 40))
	if err != nil {
		t.Fatalf("记录未落库: %v", err)
	}
	if rec.CheckIn == nil || *rec.CheckIn != "15:40" {
		t.Errorf("落库入馆时刻不符: %v", rec.CheckIn)
	}
}

func TestCheckInTwiceRejected(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(16, 0))
	seedStudent(repos, "stu-1", "김민준")

	if _, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{StudentID: "stu-1"}); err != nil {
		t.Fatalf("首次打卡失败: %v", err)
	}
	_, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{StudentID: "stu-1"})
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("期望 ErrAlreadyCheckedIn，实际=%v", err)
	}
}

func TestCheckInExplicitTime(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(16, 0))
	seedStudent(repos, "stu-1", "김민준")

	got, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{StudentID: "stu-1", Time: "15:35"})
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.CheckIn != "15:35" {
		t.Errorf("期望指定时刻 15:35，实际=%s", got.CheckIn)
	}

	// 畸形时刻回退服务器时钟，不报错
	svc2, repos2 := setupAttendanceService(t, testNow(16, 0))
	seedStudent(repos2, "stu-2", "이서연")
	got, err = svc2.CheckIn(context.Background(), &dto.CheckInRequest{StudentID: "stu-2", Time: "junk"})
	if err != nil {
		t.Fatalf("畸形时刻不应报错: %v", err)
	}
	if got.CheckIn != "16:00" {
		t.Errorf("期望回退 16:00，实际=%s", got.CheckIn)
	}
}

func TestCheckInAfterMonitorStatusRow(t *testing.T) {
	// 监控先写入了纯状态行（未到标记），随后学生真来打卡 → 走更新分支，
	// 保留 late 标记
	svc, repos := setupAttendanceService(t, testNow(16, 0))
	seedStudent(repos, "stu-1", "김민준")
	repos.attendance.SetStatus(context.Background(), "stu-1", testNow(16, 0), "late")

	got, err := svc.CheckIn(context.Background(), &dto.CheckInRequest{StudentID: "stu-1"})
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.CheckIn != "16:00" {
		t.Errorf("期望入馆 16:00，实际=%s", got.CheckIn)
	}
	if got.Status != "late" {
		t.Errorf("监控标记应保留，期望 late，实际=%s", got.Status)
	}
}

func TestReCheckInRecordsAwayGap(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(19, 0))
	seedStudent(repos, "stu-1", "김민준")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}
	if _, err := svc.CheckOut(ctx, &dto.CheckOutRequest{StudentID: "stu-1", Time: "17:00"}); err != nil {
		t.Fatalf("离馆失败: %v", err)
	}
	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "18:00"}); err != nil {
		t.Fatalf("再次入馆失败: %v", err)
	}

	rec, _ := repos.attendance.GetByStudentAndDate(ctx, "stu-1", testNow(19, 0))
	if rec.CheckOut != nil {
		t.Error("再次入馆应清除离馆时刻")
	}
	if len(rec.Segments) != 1 {
		t.Fatalf("期望离馆间隔补记为 1 个区段，实际=%d", len(rec.Segments))
	}
	seg := rec.Segments[0]
	if seg.Category != model.CategoryOuting || seg.Start != "17:00" || seg.End == nil || *seg.End != "18:00" {
		t.Errorf("外出段不符: %+v", seg)
	}

	// 15:30→19:00 毛 210 分钟，扣除 17:00→18:00 外出 → 150
	got, err := svc.DailySummary(ctx, "stu-1", testNow(19, 0))
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.NetMinutes != 150 {
		t.Errorf("净时长期望 150，实际=%d", got.NetMinutes)
	}
}

func TestCheckOutClosesOpenSegments(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(21, 0))
	seedStudent(repos, "stu-1", "김민준")

	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}
	if err := svc.StartSegment(ctx, &dto.StartSegmentRequest{
		StudentID: "stu-1", Category: model.CategoryMeal, Time: "18:00",
	}); err != nil {
		t.Fatalf("开始区段失败: %v", err)
	}

	got, err := svc.CheckOut(ctx, &dto.CheckOutRequest{StudentID: "stu-1"})
	if err != nil {
		t.Fatalf("离馆失败: %v", err)
	}
	if got.CheckOut != "21:00" {
		t.Errorf("期望离馆 21:00，实际=%s", got.CheckOut)
	}

	rec, _ := repos.attendance.GetByStudentAndDate(ctx, "stu-1", testNow(21, 0))
	for _, seg := range rec.Segments {
		if seg.End == nil {
			t.Errorf("离馆应结清进行中区段: %+v", seg)
		}
	}
	// gross=330, meal 18:00-21:00=180 → 150
	if got.NetMinutes != 150 {
		t.Errorf("净时长期望 150，实际=%d", got.NetMinutes)
	}
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(18, 0))
	seedStudent(repos, "stu-1", "김민준")

	_, err := svc.CheckOut(context.Background(), &dto.CheckOutRequest{StudentID: "stu-1"})
	if !errors.Is(err, ErrNotCheckedIn) {
		t.Errorf("期望 ErrNotCheckedIn，实际=%v", err)
	}
}

func TestSegmentLifecycle(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(18, 0))
	seedStudent(repos, "stu-1", "김민준")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}

	// 未入馆前区段操作被拒已在上面覆盖；这里验证并发开段拒绝
	if err := svc.StartSegment(ctx, &dto.StartSegmentRequest{
		StudentID: "stu-1", Category: model.CategoryOuting, Time: "17:00",
	}); err != nil {
		t.Fatalf("开始区段失败: %v", err)
	}
	err := svc.StartSegment(ctx, &dto.StartSegmentRequest{
		StudentID: "stu-1", Category: model.CategoryMeal, Time: "17:30",
	})
	if !errors.Is(err, ErrSegmentOpen) {
		t.Errorf("期望 ErrSegmentOpen，实际=%v", err)
	}

	// OUTING 开段置 manual_out
	rec, _ := repos.attendance.GetByStudentAndDate(ctx, "stu-1", testNow(18, 0))
	if !rec.ManualOut {
		t.Error("外出开段应置 manual_out")
	}

	if err := svc.EndSegment(ctx, &dto.EndSegmentRequest{StudentID: "stu-1", Time: "17:45"}); err != nil {
		t.Fatalf("结束区段失败: %v", err)
	}
	rec, _ = repos.attendance.GetByStudentAndDate(ctx, "stu-1", testNow(18, 0))
	if rec.ManualOut {
		t.Error("结束区段应清除 manual_out")
	}
	if rec.Segments[0].End == nil || *rec.Segments[0].End != "17:45" {
		t.Errorf("区段终点不符: %+v", rec.Segments[0])
	}

	// 没有进行中区段时再次结束被拒
	err = svc.EndSegment(ctx, &dto.EndSegmentRequest{StudentID: "stu-1"})
	if !errors.Is(err, ErrNoOpenSegment) {
		t.Errorf("期望 ErrNoOpenSegment，实际=%v", err)
	}
}

func TestStartSegmentSubjectCategory(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(18, 0))
	seedStudent(repos, "stu-1", "김민준")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}
	if err := svc.StartSegment(ctx, &dto.StartSegmentRequest{
		StudentID: "stu-1", Category: "수학", Time: "16:00",
	}); err != nil {
		t.Fatalf("科目区段开始失败: %v", err)
	}

	// 科目区段不置 manual_out
	rec, _ := repos.attendance.GetByStudentAndDate(ctx, "stu-1", testNow(18, 0))
	if rec.ManualOut {
		t.Error("科目区段不应置 manual_out")
	}

	if err := svc.EndSegment(ctx, &dto.EndSegmentRequest{StudentID: "stu-1", Time: "17:00"}); err != nil {
		t.Fatalf("结束区段失败: %v", err)
	}

	got, err := svc.DailySummary(ctx, "stu-1", testNow(18, 0))
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.ByCategory["수학"] != 60 {
		t.Errorf("科目时长期望 60，实际=%d", got.ByCategory["수학"])
	}
}

func TestSetStatusNormalClearsFlag(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(16, 0))
	seedStudent(repos, "stu-1", "김민준")
	ctx := context.Background()

	repos.attendance.SetStatus(ctx, "stu-1", testNow(16, 0), "late")

	if err := svc.SetStatus(ctx, &dto.SetStatusRequest{StudentID: "stu-1", Status: "normal"}); err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	rec, _ := repos.attendance.GetByStudentAndDate(ctx, "stu-1", testNow(16, 0))
	if rec.Status != "" {
		t.Errorf("normal 应清除标记为空串，实际=%q", rec.Status)
	}
}

func TestGetLiveStatusEmptyGate(t *testing.T) {
	// 未入馆 → EMPTY，即使当下落在课表的学院时段内
	now := testNow(16, 30)
	svc, repos := setupAttendanceService(t, now)
	seedStudent(repos, "stu-1", "김민준")
	repos.timetable.timetables["stu-1"] = &model.StudentTimetable{
		StudentID: "stu-1",
		Versions: model.TimetableVersionList{
			{Data: model.RawTimetable{"수학": {{Day: "1", From: "16:00", To: "17:00"}}}},
		},
	}

	got, err := svc.GetLiveStatus(context.Background(), "stu-1")
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.Status != "EMPTY" {
		t.Errorf("未入馆期望 EMPTY，实际=%s", got.Status)
	}
}

func TestGetLiveStatusResolved(t *testing.T) {
	now := testNow(16, 30)
	svc, repos := setupAttendanceService(t, now)
	seedStudent(repos, "stu-1", "김민준")
	repos.timetable.timetables["stu-1"] = &model.StudentTimetable{
		StudentID: "stu-1",
		Versions: model.TimetableVersionList{
			{Data: model.RawTimetable{"수학": {{Day: "1", From: "16:00", To: "17:00"}}}},
		},
	}
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}

	// 16:30 在课内 → ACADEMY
	got, err := svc.GetLiveStatus(ctx, "stu-1")
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.Status != "ACADEMY" {
		t.Errorf("课内期望 ACADEMY，实际=%s", got.Status)
	}

	// 离馆后 → EMPTY
	if _, err := svc.CheckOut(ctx, &dto.CheckOutRequest{StudentID: "stu-1", Time: "16:40"}); err != nil {
		t.Fatalf("离馆失败: %v", err)
	}
	got, _ = svc.GetLiveStatus(ctx, "stu-1")
	if got.Status != "EMPTY" {
		t.Errorf("离馆后期望 EMPTY，实际=%s", got.Status)
	}
}

func TestGetLiveStatusOpenMealSegment(t *testing.T) {
	now := testNow(18, 20)
	svc, repos := setupAttendanceService(t, now)
	seedStudent(repos, "stu-1", "김민준")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}
	if err := svc.StartSegment(ctx, &dto.StartSegmentRequest{
		StudentID: "stu-1", Category: model.CategoryMeal, Time: "18:00",
	}); err != nil {
		t.Fatalf("开始用餐失败: %v", err)
	}

	got, err := svc.GetLiveStatus(ctx, "stu-1")
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if got.Status != "MEAL" {
		t.Errorf("用餐中期望 MEAL，实际=%s", got.Status)
	}
}

func TestListSeatStatuses(t *testing.T) {
	now := testNow(17, 0)
	svc, repos := setupAttendanceService(t, now)
	seedStudent(repos, "stu-1", "김민준")
	seedStudent(repos, "stu-2", "이서연")
	ctx := context.Background()

	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}

	got, err := svc.ListSeatStatuses(ctx)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个学生，实际=%d", len(got))
	}
	byID := map[string]string{}
	for _, s := range got {
		byID[s.StudentID] = s.Status
	}
	if byID["stu-1"] != "PRESENT" {
		t.Errorf("stu-1 期望 PRESENT，实际=%s", byID["stu-1"])
	}
	if byID["stu-2"] != "EMPTY" {
		t.Errorf("stu-2 期望 EMPTY，实际=%s", byID["stu-2"])
	}
}

func TestOccupancyGrid(t *testing.T) {
	now := testNow(20, 0)
	svc, repos := setupAttendanceService(t, now)
	seedStudent(repos, "stu-1", "김민준")
	repos.timetable.timetables["stu-1"] = &model.StudentTimetable{
		StudentID: "stu-1",
		Versions: model.TimetableVersionList{
			{Data: model.RawTimetable{"수학": {{Day: "1", From: "17:00", To: "18:00"}}}},
		},
	}
	ctx := context.Background()
	if _, err := svc.CheckIn(ctx, &dto.CheckInRequest{StudentID: "stu-1", Time: "15:30"}); err != nil {
		t.Fatalf("打卡失败: %v", err)
	}

	got, err := svc.OccupancyGrid(ctx, now)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	// 15:30-22:00 每 30 分钟一槽 → 13 槽
	if len(got.Slots) != 13 {
		t.Fatalf("期望 13 个槽，实际=%d", len(got.Slots))
	}

	bySlot := map[string]dto.OccupancySlot{}
	for _, s := range got.Slots {
		bySlot[s.Time] = s
	}
	// 16:00 自习在座
	if n := len(bySlot["16:00"].Students); n != 1 {
		t.Errorf("16:00 槽期望 1 人，实际=%d", n)
	}
	// 17:00/17:30 在学院课内 → 不占座
	if n := len(bySlot["17:00"].Students); n != 0 {
		t.Errorf("17:00 槽应为空，实际=%d", n)
	}
	// 18:00 槽起点落在课后缓冲 [18:00,18:15) → AFTER 标记
	slot1800 := bySlot["18:00"]
	if len(slot1800.Students) != 1 || slot1800.Students[0].Marker != "AFTER" {
		t.Errorf("18:00 槽期望 AFTER 标记，实际=%+v", slot1800.Students)
	}
}

func TestDailySummaryNoRecord(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(18, 0))
	seedStudent(repos, "stu-1", "김민준")

	got, err := svc.DailySummary(context.Background(), "stu-1", testNow(18, 0))
	if err != nil {
		t.Fatalf("无记录不应报错: %v", err)
	}
	if got.NetMinutes != 0 || got.Status != "absent" {
		t.Errorf("期望零值汇总 (0, absent)，实际=(%d, %s)", got.NetMinutes, got.Status)
	}
}

func TestRangeSummary(t *testing.T) {
	svc, repos := setupAttendanceService(t, testNow(23, 0))
	seedStudent(repos, "stu-1", "김민준")
	ctx := context.Background()

	day1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	day2 := time.Date(2026, 3, 3, 0, 0, 0, 0, time.Local)
	repos.attendance.Create(ctx, &model.AttendanceRecord{
		StudentID: "stu-1", RecordDate: day1,
		CheckIn: strPtr("15:30"), CheckOut: strPtr("18:30"),
	})
	repos.attendance.Create(ctx, &model.AttendanceRecord{
		StudentID: "stu-1", RecordDate: day2,
		CheckIn: strPtr("15:30"), CheckOut: strPtr("17:30"),
		Segments: model.SegmentList{{Category: "수학", Start: "16:00", End: strPtr("17:00")}},
	})

	got, err := svc.RangeSummary(ctx, "stu-1", day1, day2)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if len(got.Days) != 2 {
		t.Fatalf("期望 2 天，实际=%d", len(got.Days))
	}
	// day1=180, day2=120-60=60 → 240
	if got.TotalMinutes != 240 {
		t.Errorf("总时长期望 240，实际=%d", got.TotalMinutes)
	}
}
