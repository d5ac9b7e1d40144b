package service

import (
	"errors"
	"testing"
)

// 标准营业窗口 15:30-22:00
var testWindow = OperatingWindow{Open: 930, Close: 1320}

func academyBlock(day DayOfWeek, start, end TimeOfDay, subject string) ScheduleBlock {
	return ScheduleBlock{Day: day, Start: start, End: end, Kind: BlockAcademy, Subject: subject}
}

func TestPartitionDayEmpty(t *testing.T) {
	// 无学院课程 → 整个营业窗口一个自习区块
	got, err := PartitionDay(Monday, nil, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个区块，实际=%d", len(got))
	}
	if got[0].Kind != BlockStudyHall || got[0].Start != testWindow.Open || got[0].End != testWindow.Close {
		t.Errorf("期望整窗自习区块，实际=%+v", got[0])
	}
}

func TestPartitionDayInterleaving(t *testing.T) {
	// 两门课 16:00-17:00、18:30-20:00 → 自习/学院交替，首尾自习补齐
	blocks := []ScheduleBlock{
		academyBlock(Monday, 16*60, 17*60, "수학"),
		academyBlock(Monday, 18*60+30, 20*60, "영어"),
	}
	got, err := PartitionDay(Monday, blocks, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}

	wantKinds := []BlockKind{BlockStudyHall, BlockAcademy, BlockStudyHall, BlockAcademy, BlockStudyHall}
	if len(got) != len(wantKinds) {
		t.Fatalf("期望 %d 个区块，实际=%d", len(wantKinds), len(got))
	}
	for i, k := range wantKinds {
		if got[i].Kind != k {
			t.Errorf("区块 %d: 期望类型 %v，实际=%v", i, k, got[i].Kind)
		}
	}
}

func TestPartitionDayContiguity(t *testing.T) {
	// 分区产物必须首尾相接且总时长恰等于营业窗口
	blocks := []ScheduleBlock{
		academyBlock(Tuesday, 17*60, 18*60, "국어"),
		academyBlock(Tuesday, 20*60, 21*60, "수학"),
	}
	got, err := PartitionDay(Tuesday, blocks, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}

	total := 0
	cursor := testWindow.Open
	for i, b := range got {
		if b.Start != cursor {
			t.Errorf("区块 %d 起点不连续: 期望 %s，实际=%s", i, cursor, b.Start)
		}
		cursor = b.End
		total += b.Duration()
	}
	if cursor != testWindow.Close {
		t.Errorf("末区块终点: 期望 %s，实际=%s", testWindow.Close, cursor)
	}
	if want := int(testWindow.Close) - int(testWindow.Open); total != want {
		t.Errorf("总时长: 期望 %d，实际=%d", want, total)
	}
}

func TestPartitionDayClamping(t *testing.T) {
	// 越出营业窗口的课程截断；完全在窗口外的剔除
	blocks := []ScheduleBlock{
		academyBlock(Wednesday, 14*60, 16*60, "수학"),  // 起点早于开门 → 截到 15:30
		academyBlock(Wednesday, 21*60, 23*60, "영어"),  // 终点晚于关门 → 截到 22:00
		academyBlock(Wednesday, 8*60, 9*60, "아침수업"),  // 全在窗口外 → 剔除
		academyBlock(Wednesday, 18*60, 17*60, "뒤집힘"), // 起止倒置 → 剔除
	}
	got, err := PartitionDay(Wednesday, blocks, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}

	var academy []ScheduleBlock
	for _, b := range got {
		if b.Kind == BlockAcademy {
			academy = append(academy, b)
		}
	}
	if len(academy) != 2 {
		t.Fatalf("期望 2 个学院区块，实际=%d", len(academy))
	}
	if academy[0].Start != testWindow.Open || academy[0].End != 16*60 {
		t.Errorf("前截断: 期望 [15:30,16:00)，实际=[%s,%s)", academy[0].Start, academy[0].End)
	}
	if academy[1].Start != 21*60 || academy[1].End != testWindow.Close {
		t.Errorf("后截断: 期望 [21:00,22:00)，实际=[%s,%s)", academy[1].Start, academy[1].End)
	}
}

func TestPartitionDayOverlapRejected(t *testing.T) {
	blocks := []ScheduleBlock{
		academyBlock(Thursday, 16*60, 18*60, "수학"),
		academyBlock(Thursday, 17*60, 19*60, "영어"),
	}
	_, err := PartitionDay(Thursday, blocks, testWindow)
	if !errors.Is(err, ErrOverlappingBlocks) {
		t.Errorf("期望 ErrOverlappingBlocks，实际=%v", err)
	}
}

func TestPartitionDayBackToBack(t *testing.T) {
	// 背靠背课程不算重叠，中间不插自习
	blocks := []ScheduleBlock{
		academyBlock(Friday, 16*60, 17*60, "수학"),
		academyBlock(Friday, 17*60, 18*60, "영어"),
	}
	got, err := PartitionDay(Friday, blocks, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	wantKinds := []BlockKind{BlockStudyHall, BlockAcademy, BlockAcademy, BlockStudyHall}
	if len(got) != len(wantKinds) {
		t.Fatalf("期望 %d 个区块，实际=%d", len(wantKinds), len(got))
	}
}

func TestPartitionDayIdempotent(t *testing.T) {
	// 同一输入多次分区产物一致
	blocks := []ScheduleBlock{
		academyBlock(Saturday, 16*60, 17*60, "수학"),
	}
	first, err := PartitionDay(Saturday, blocks, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	second, err := PartitionDay(Saturday, blocks, testWindow)
	if err != nil {
		t.Fatalf("意外错误: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("两次分区区块数不一致: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("区块 %d 不一致: %+v vs %+v", i, first[i], second[i])
		}
	}
}
