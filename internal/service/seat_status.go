package service

import "fmt"

// ── 实时座位状态解析 ──

// SeatStatus 座位实时状态。纯推导值，从不落库（与 AttendanceRecord.Status
// 的持久化迟到/缺席标记是两回事）
type SeatStatus int

const (
	SeatEmpty      SeatStatus = iota // 空位
	SeatPresent                      // 自习在座
	SeatMoveBefore                   // 学院课前通勤
	SeatAcademy                      // 学院上课中
	SeatMoveAfter                    // 学院课后通勤
	SeatMeal                         // 用餐
	SeatOut                          // 手动外出
)

// String 返回状态名
func (s SeatStatus) String() string {
	switch s {
	case SeatEmpty:
		return "EMPTY"
	case SeatPresent:
		return "PRESENT"
	case SeatMoveBefore:
		return "MOVE_BEFORE"
	case SeatAcademy:
		return "ACADEMY"
	case SeatMoveAfter:
		return "MOVE_AFTER"
	case SeatMeal:
		return "MEAL"
	case SeatOut:
		return "OUT"
	}
	return fmt.Sprintf("SeatStatus(%d)", int(s))
}

// ResolveSeatStatus 由当前时刻与日分区推导座位状态
//
// 纯函数，每次查询重新计算，不缓存、不做状态迁移。判定顺序固定，
// 首个命中即返回：
//
//  1. manualOut                           → OUT
//  2. now 在学院区块内                     → ACADEMY
//  3. now 在用餐区块内                     → MEAL
//  4. now 在某学院区块前缓冲 [start-buf, start) → MOVE_BEFORE
//  5. now 在某学院区块后缓冲 [end, end+buf)     → MOVE_AFTER
//  6. now 在自习区块内                     → PRESENT
//  7. 其余                                → EMPTY
//
// 区块包含（2-3）必须压过缓冲（4-5)：背靠背课程时后一块的前缓冲会
// 与前一块的后缓冲重叠，而身处课内是确定事实。同一时刻同时落在两个
// 不同区块的前/后缓冲时，MOVE_BEFORE 先于 MOVE_AFTER 判定。
func ResolveSeatStatus(now TimeOfDay, partition []ScheduleBlock, manualOut bool, bufferMin int) SeatStatus {
	if manualOut {
		return SeatOut
	}

	for _, b := range partition {
		if b.Kind == BlockAcademy && b.Contains(now) {
			return SeatAcademy
		}
	}
	for _, b := range partition {
		if b.Kind == BlockMeal && b.Contains(now) {
			return SeatMeal
		}
	}

	buf := TimeOfDay(bufferMin)
	for _, b := range partition {
		if b.Kind == BlockAcademy && now >= b.Start-buf && now < b.Start {
			return SeatMoveBefore
		}
	}
	for _, b := range partition {
		if b.Kind == BlockAcademy && now >= b.End && now < b.End+buf {
			return SeatMoveAfter
		}
	}

	for _, b := range partition {
		if b.Kind == BlockStudyHall && b.Contains(now) {
			return SeatPresent
		}
	}

	return SeatEmpty
}
