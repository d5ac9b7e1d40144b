package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"academy-portal/backend/internal/dto"
)

func setupStudentService(t *testing.T) (StudentService, *testRepos) {
	t.Helper()
	repos := newTestRepos()
	return NewStudentService(repos.toRepository(), zap.NewNop()), repos
}

func TestStudentCreateAndGet(t *testing.T) {
	svc, _ := setupStudentService(t)

	created, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		Name:       "김민준",
		Grade:      "高二",
		SeatNumber: "A-12",
	})
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}
	if created.ID == "" {
		t.Fatal("学生 ID 不应为空")
	}
	if !created.IsActive {
		t.Error("新建学生应为在读状态")
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	if got.Name != "김민준" || got.SeatNumber != "A-12" {
		t.Errorf("期望 김민준/A-12，实际=%s/%s", got.Name, got.SeatNumber)
	}
}

func TestStudentGet_NotFound(t *testing.T) {
	svc, _ := setupStudentService(t)

	_, err := svc.Get(context.Background(), "no-such-id")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际=%v", err)
	}
}

func TestStudentUpdate_PartialFields(t *testing.T) {
	svc, _ := setupStudentService(t)

	created, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		Name:       "이서연",
		Grade:      "高一",
		SeatNumber: "B-03",
	})
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	newSeat := "B-07"
	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateStudentRequest{
		SeatNumber: &newSeat,
	})
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.SeatNumber != "B-07" {
		t.Errorf("期望座位 B-07，实际=%s", updated.SeatNumber)
	}
	// 未提交的字段保持不变
	if updated.Name != "이서연" || updated.Grade != "高一" {
		t.Errorf("未更新字段被改动: %s/%s", updated.Name, updated.Grade)
	}
}

func TestStudentUpdate_Deactivate(t *testing.T) {
	svc, _ := setupStudentService(t)

	created, err := svc.Create(context.Background(), &dto.CreateStudentRequest{Name: "박지호"})
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	inactive := false
	updated, err := svc.Update(context.Background(), created.ID, &dto.UpdateStudentRequest{
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	if updated.IsActive {
		t.Error("期望退学状态 IsActive=false")
	}

	// 在读过滤不应返回退学学生
	active, total, err := svc.List(context.Background(), &dto.ListStudentsRequest{ActiveOnly: true})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 0 {
		t.Errorf("期望在读总数 0，实际=%d", total)
	}
	for _, s := range active {
		if s.ID == created.ID {
			t.Error("退学学生不应出现在在读列表中")
		}
	}
}

func TestStudentList_Pagination(t *testing.T) {
	svc, _ := setupStudentService(t)

	for _, name := range []string{"학생A", "학생B", "학생C"} {
		if _, err := svc.Create(context.Background(), &dto.CreateStudentRequest{Name: name}); err != nil {
			t.Fatalf("Create 失败: %v", err)
		}
	}

	page, total, err := svc.List(context.Background(), &dto.ListStudentsRequest{
		PaginationRequest: dto.PaginationRequest{Page: 1, PageSize: 2},
	})
	if err != nil {
		t.Fatalf("List 失败: %v", err)
	}
	if total != 3 {
		t.Errorf("期望总数 3，实际=%d", total)
	}
	if len(page) != 2 {
		t.Errorf("期望第一页 2 条，实际=%d", len(page))
	}
}

func TestStudentDelete(t *testing.T) {
	svc, _ := setupStudentService(t)

	created, err := svc.Create(context.Background(), &dto.CreateStudentRequest{Name: "최지우"})
	if err != nil {
		t.Fatalf("Create 失败: %v", err)
	}

	if err := svc.Delete(context.Background(), created.ID, "user-admin"); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("删除后期望 ErrStudentNotFound，实际=%v", err)
	}
}

func TestStudentDelete_NotFound(t *testing.T) {
	svc, _ := setupStudentService(t)

	err := svc.Delete(context.Background(), "no-such-id", "user-admin")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际=%v", err)
	}
}
