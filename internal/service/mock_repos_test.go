package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"academy-portal/backend/internal/model"
	"academy-portal/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		student.StudentID = fmt.Sprintf("stu-%d", len(m.students)+1)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context, activeOnly bool) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		if activeOnly && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockStudentRepo) ListPage(ctx context.Context, activeOnly bool, offset, limit int) ([]model.Student, int64, error) {
	all, err := m.List(ctx, activeOnly)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.students, id)
	return nil
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	timetables map[string]*model.StudentTimetable // key: student_id
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{timetables: make(map[string]*model.StudentTimetable)}
}

func (m *mockTimetableRepo) GetByStudent(_ context.Context, studentID string) (*model.StudentTimetable, error) {
	if tt, ok := m.timetables[studentID]; ok {
		return tt, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) ListByStudents(_ context.Context, studentIDs []string) ([]model.StudentTimetable, error) {
	var result []model.StudentTimetable
	for _, id := range studentIDs {
		if tt, ok := m.timetables[id]; ok {
			result = append(result, *tt)
		}
	}
	return result, nil
}

func (m *mockTimetableRepo) Upsert(_ context.Context, tt *model.StudentTimetable) error {
	if tt.TimetableID == "" {
		tt.TimetableID = "tt-" + tt.StudentID
	}
	m.timetables[tt.StudentID] = tt
	return nil
}

// ── Mock AttendanceRepository ──

type mockAttendanceRepo struct {
	records map[string]*model.AttendanceRecord // key: student_id|date
}

func newMockAttendanceRepo() *mockAttendanceRepo {
	return &mockAttendanceRepo{records: make(map[string]*model.AttendanceRecord)}
}

func attKey(studentID string, date time.Time) string {
	return studentID + "|" + date.Format("2006-01-02")
}

func (m *mockAttendanceRepo) Create(_ context.Context, rec *model.AttendanceRecord) error {
	if rec.RecordID == "" {
		rec.RecordID = fmt.Sprintf("rec-%d", len(m.records)+1)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	m.records[attKey(rec.StudentID, rec.RecordDate)] = rec
	return nil
}

func (m *mockAttendanceRepo) GetByStudentAndDate(_ context.Context, studentID string, date time.Time) (*model.AttendanceRecord, error) {
	if rec, ok := m.records[attKey(studentID, date)]; ok {
		return rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByDate(_ context.Context, date time.Time) ([]model.AttendanceRecord, error) {
	suffix := "|" + date.Format("2006-01-02")
	var result []model.AttendanceRecord
	for key, rec := range m.records {
		if len(key) >= len(suffix) && key[len(key)-len(suffix):] == suffix {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByStudentRange(_ context.Context, studentID string, from, to time.Time) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, rec := range m.records {
		if rec.StudentID != studentID {
			continue
		}
		if rec.RecordDate.Before(from) || rec.RecordDate.After(to) {
			continue
		}
		result = append(result, *rec)
	}
	return result, nil
}

func (m *mockAttendanceRepo) Update(_ context.Context, rec *model.AttendanceRecord) error {
	rec.Version++
	m.records[attKey(rec.StudentID, rec.RecordDate)] = rec
	return nil
}

func (m *mockAttendanceRepo) SetStatus(_ context.Context, studentID string, date time.Time, status string) error {
	key := attKey(studentID, date)
	if rec, ok := m.records[key]; ok {
		rec.Status = status
		return nil
	}
	m.records[key] = &model.AttendanceRecord{
		RecordID:   "rec-status-" + studentID,
		StudentID:  studentID,
		RecordDate: date,
		Status:     status,
		Segments:   model.SegmentList{},
	}
	return nil
}

// ── 聚合辅助 ──

type testRepos struct {
	user       *mockUserRepo
	student    *mockStudentRepo
	timetable  *mockTimetableRepo
	attendance *mockAttendanceRepo
}

func newTestRepos() *testRepos {
	return &testRepos{
		user:       newMockUserRepo(),
		student:    newMockStudentRepo(),
		timetable:  newMockTimetableRepo(),
		attendance: newMockAttendanceRepo(),
	}
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		User:       r.user,
		Student:    r.student,
		Timetable:  r.timetable,
		Attendance: r.attendance,
	}
}
