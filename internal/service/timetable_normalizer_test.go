package service

import (
	"testing"
	"time"

	"academy-portal/backend/internal/model"
)

func TestResolveTimetableVersion(t *testing.T) {
	mathOnly := model.RawTimetable{"수학": {{Day: "1", From: "16:00", To: "17:00"}}}
	englishOnly := model.RawTimetable{"영어": {{Day: "2", From: "18:00", To: "19:00"}}}
	korean := model.RawTimetable{"국어": {{Day: "3", From: "17:00", To: "18:00"}}}

	versions := model.TimetableVersionList{
		{EffectiveDate: "", Data: mathOnly},
		{EffectiveDate: "2026-03-01", Data: englishOnly},
		{EffectiveDate: "2026-09-01", Data: korean},
	}

	// 生效日期之前 → 无日期版本
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.Local)
	if got := ResolveTimetableVersion(versions, at); got["수학"] == nil {
		t.Error("2026-02-01 应选用无生效日期的初始版本")
	}

	// 两版本之间 → 3月版本
	at = time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local)
	if got := ResolveTimetableVersion(versions, at); got["영어"] == nil {
		t.Error("2026-05-01 应选用 2026-03-01 生效的版本")
	}

	// 全部生效后 → 最新版本
	at = time.Date(2026, 10, 1, 12, 0, 0, 0, time.Local)
	if got := ResolveTimetableVersion(versions, at); got["국어"] == nil {
		t.Error("2026-10-01 应选用 2026-09-01 生效的版本")
	}

	// 生效当日即切换
	at = time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local)
	if got := ResolveTimetableVersion(versions, at); got["국어"] == nil {
		t.Error("生效日期当日零点即应切换到新版本")
	}
}

func TestResolveTimetableVersionEdgeCases(t *testing.T) {
	if got := ResolveTimetableVersion(nil, time.Now()); got != nil {
		t.Errorf("空版本列表应返回 nil，实际=%v", got)
	}

	// 全部尚未生效
	future := model.TimetableVersionList{
		{EffectiveDate: "2099-01-01", Data: model.RawTimetable{"수학": nil}},
	}
	if got := ResolveTimetableVersion(future, time.Now()); got != nil {
		t.Errorf("全部未生效应返回 nil，实际=%v", got)
	}

	// 畸形生效日期的版本跳过，不影响其余版本
	mixed := model.TimetableVersionList{
		{EffectiveDate: "not-a-date", Data: model.RawTimetable{"깨짐": nil}},
		{EffectiveDate: "2026-01-01", Data: model.RawTimetable{"수학": nil}},
	}
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	got := ResolveTimetableVersion(mixed, at)
	if got == nil {
		t.Fatal("畸形日期版本不应拖垮解析")
	}
	if _, exists := got["깨짐"]; exists {
		t.Error("畸形日期的版本不应被选中")
	}
}

func TestNormalizeWeeklyTimetable(t *testing.T) {
	raw := model.RawTimetable{
		"수학": {
			{Day: "1", From: "16:00", To: "17:00"},
			{Day: "월", From: "18:00", To: "19:00"},
		},
		"영어": {
			{Day: "Wed", From: "17:00", To: "18:30"},
		},
	}

	blocks, skipped := NormalizeWeeklyTimetable(raw, false)
	if len(skipped) != 0 {
		t.Errorf("不应有被剔除的时段: %v", skipped)
	}
	if len(blocks[Monday]) != 2 {
		t.Errorf("周一期望 2 个区块，实际=%d", len(blocks[Monday]))
	}
	if len(blocks[Wednesday]) != 1 {
		t.Errorf("周三期望 1 个区块，实际=%d", len(blocks[Wednesday]))
	}
	for _, b := range blocks[Monday] {
		if b.Kind != BlockAcademy || b.Subject != "수학" {
			t.Errorf("区块应为学院类型且带科目名: %+v", b)
		}
	}
}

func TestNormalizeWeeklyTimetableMalformed(t *testing.T) {
	raw := model.RawTimetable{
		"수학": {
			{Day: "1", From: "bad", To: "17:00"},   // 时刻畸形 → 剔除
			{Day: "1", From: "18:00", To: "17:00"}, // 起止倒置 → 剔除
			{Day: "1", From: "16:00", To: "17:00"}, // 正常
		},
	}

	blocks, skipped := NormalizeWeeklyTimetable(raw, false)
	if len(blocks[Monday]) != 1 {
		t.Errorf("周一期望 1 个有效区块，实际=%d", len(blocks[Monday]))
	}
	if len(skipped) != 2 {
		t.Errorf("期望 2 条剔除记录，实际=%d: %v", len(skipped), skipped)
	}
}

func TestNormalizeWeeklyTimetableUnknownDay(t *testing.T) {
	raw := model.RawTimetable{
		"수학": {{Day: "someday", From: "16:00", To: "17:00"}},
	}

	// 宽松模式：回退周一并上报
	blocks, skipped := NormalizeWeeklyTimetable(raw, false)
	if len(blocks[Monday]) != 1 {
		t.Errorf("宽松模式应回退周一，实际周一区块数=%d", len(blocks[Monday]))
	}
	if len(skipped) != 1 {
		t.Errorf("回退仍应上报: %v", skipped)
	}

	// 严格模式：剔除
	blocks, skipped = NormalizeWeeklyTimetable(raw, true)
	if len(blocks[Monday]) != 0 {
		t.Errorf("严格模式应剔除，实际周一区块数=%d", len(blocks[Monday]))
	}
	if len(skipped) != 1 {
		t.Errorf("剔除应上报: %v", skipped)
	}
}

func TestNormalizeForDay(t *testing.T) {
	versions := model.TimetableVersionList{
		{EffectiveDate: "", Data: model.RawTimetable{
			"수학": {{Day: "5", From: "16:00", To: "17:00"}},
		}},
	}
	at := time.Date(2026, 3, 6, 12, 0, 0, 0, time.Local) // 周五

	got := NormalizeForDay(versions, at, Friday, false)
	if len(got) != 1 {
		t.Fatalf("期望 1 个区块，实际=%d", len(got))
	}
	if got[0].Start != 16*60 || got[0].End != 17*60 {
		t.Errorf("区块时段: 期望 [16:00,17:00)，实际=[%s,%s)", got[0].Start, got[0].End)
	}

	if got := NormalizeForDay(versions, at, Saturday, false); len(got) != 0 {
		t.Errorf("周六无课程，期望空，实际=%d", len(got))
	}
	if got := NormalizeForDay(nil, at, Friday, false); got != nil {
		t.Errorf("无版本期望 nil，实际=%v", got)
	}
}
