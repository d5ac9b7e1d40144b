package service

import (
	"errors"
	"fmt"
	"sort"

	"academy-portal/backend/config"
)

// ── 日区块分区器 ──

var (
	// ErrOverlappingBlocks 学院区块互相重叠属于前置条件违例，显式拒绝而非
	// 悄悄产出带重叠的分区（越界区块则截断到营业窗口内）
	ErrOverlappingBlocks = errors.New("学院区块时段重叠")
)

// BlockKind 日区块类型
type BlockKind int

const (
	BlockStudyHall BlockKind = iota // 自习（营业时间内未被占用的部分）
	BlockAcademy                    // 学院课程
	BlockMeal                       // 用餐
)

// String 返回类型名
func (k BlockKind) String() string {
	switch k {
	case BlockStudyHall:
		return "STUDY_HALL"
	case BlockAcademy:
		return "ACADEMY"
	case BlockMeal:
		return "MEAL"
	}
	return fmt.Sprintf("BlockKind(%d)", int(k))
}

// ScheduleBlock 某日的一个连续时段区块，[Start, End) 半开区间
// 由规范化/分区流程即算即用，从不落库
type ScheduleBlock struct {
	Day     DayOfWeek
	Start   TimeOfDay
	End     TimeOfDay
	Kind    BlockKind
	Subject string // 学院区块的科目名；自习/用餐区块为空
}

// Duration 区块时长（分钟）
func (b ScheduleBlock) Duration() int { return int(b.End) - int(b.Start) }

// Contains 判断时刻是否落在区块内（含起点，不含终点）
func (b ScheduleBlock) Contains(t TimeOfDay) bool { return t >= b.Start && t < b.End }

// OperatingWindow 营业时段 [Open, Close)
type OperatingWindow struct {
	Open  TimeOfDay
	Close TimeOfDay
}

// WindowFromConfig 按配置的营业模式（常规/缩短）构造营业窗口
func WindowFromConfig(cfg *config.AttendanceConfig) OperatingWindow {
	openStr := cfg.StandardOpen
	if cfg.ReducedHours {
		openStr = cfg.ReducedOpen
	}
	open, _ := ParseClock(openStr) // 配置加载时已校验格式
	closeAt, _ := ParseClock(cfg.Close)
	return OperatingWindow{Open: open, Close: closeAt}
}

// PartitionDay 将某日的学院区块补齐为覆盖整个营业窗口的无缝分区
//
// 算法：按开始时刻排序后推进游标，游标与下一学院区块之间的空隙填
// 自习区块，收尾到 Close。产出保证连续、有序、无重叠，区块总时长
// 恰等于 Close-Open。
//
// 输入处理：
//   - end <= start 的区块无效，直接剔除
//   - 越出营业窗口的区块截断到 [Open, Close) 内
//   - 截断后与已放置区块仍重叠的输入返回 ErrOverlappingBlocks
func PartitionDay(day DayOfWeek, academyBlocks []ScheduleBlock, window OperatingWindow) ([]ScheduleBlock, error) {
	if window.Close <= window.Open {
		return nil, fmt.Errorf("营业窗口无效: %s-%s", window.Open, window.Close)
	}

	// 过滤无效与完全越界的区块，并截断到窗口内
	valid := make([]ScheduleBlock, 0, len(academyBlocks))
	for _, b := range academyBlocks {
		if b.End <= b.Start {
			continue
		}
		if b.End <= window.Open || b.Start >= window.Close {
			continue
		}
		if b.Start < window.Open {
			b.Start = window.Open
		}
		if b.End > window.Close {
			b.End = window.Close
		}
		b.Day = day
		valid = append(valid, b)
	}

	// 无学院区块：一整块自习
	if len(valid) == 0 {
		return []ScheduleBlock{{Day: day, Start: window.Open, End: window.Close, Kind: BlockStudyHall}}, nil
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].Start < valid[j].Start })

	partition := make([]ScheduleBlock, 0, len(valid)*2+1)
	cursor := window.Open
	for _, b := range valid {
		if b.Start < cursor {
			return nil, fmt.Errorf("%w: %s-%s 与前一区块冲突", ErrOverlappingBlocks, b.Start, b.End)
		}
		if cursor < b.Start {
			partition = append(partition, ScheduleBlock{Day: day, Start: cursor, End: b.Start, Kind: BlockStudyHall})
		}
		partition = append(partition, b)
		cursor = b.End
	}
	if cursor < window.Close {
		partition = append(partition, ScheduleBlock{Day: day, Start: cursor, End: window.Close, Kind: BlockStudyHall})
	}

	return partition, nil
}
