package service

import (
	"fmt"
	"time"

	"academy-portal/backend/internal/model"
)

// ── 周课表规范化 ──
//
// 外部编辑器写入的原始课表（科目 → 时段列表）经此处规范化为按规范
// 星期分组的学院区块。星期标记只在这里穿过规范化边界，后续的分区器
// 与状态解析器只见 DayOfWeek。

// WeeklyBlocks 规范化产物：规范星期 → 学院区块列表（未排序，分区器负责排序）
type WeeklyBlocks map[DayOfWeek][]ScheduleBlock

// ResolveTimetableVersion 按生效日期解析应采用的课表版本
//
// 版本列表按"生效日期 ≤ now 中最晚者胜出"解析；无生效日期的版本视为
// 自始生效。相比旧版固定的 current/next 两版本，这里推广为任意长
// 的版本序列。所有版本都尚未生效或列表为空时返回 nil。
func ResolveTimetableVersion(versions model.TimetableVersionList, now time.Time) model.RawTimetable {
	var chosen model.RawTimetable
	var chosenDate time.Time
	chosenSet := false

	for _, v := range versions {
		effective := time.Time{}
		if v.EffectiveDate != "" {
			t, err := time.ParseInLocation("2006-01-02", v.EffectiveDate, now.Location())
			if err != nil {
				continue // 畸形生效日期的版本跳过
			}
			effective = t
		}
		if effective.After(now) {
			continue
		}
		if !chosenSet || !effective.Before(chosenDate) {
			chosen = v.Data
			chosenDate = effective
			chosenSet = true
		}
	}
	return chosen
}

// NormalizeWeeklyTimetable 将原始课表规范化为按日分组的学院区块
//
// 过滤规则（畸形输入一律剔除，不报错中断）：
//   - 缺 from/to 或无法解析为 "HH:MM" 的时段跳过
//   - from >= to 的时段跳过
//   - strict 模式下星期标记无法识别的时段跳过；宽松模式回退周一
//
// 返回值 skipped 为被剔除时段的描述，供上层记录日志或回显校验结果。
func NormalizeWeeklyTimetable(raw model.RawTimetable, strict bool) (WeeklyBlocks, []string) {
	blocks := make(WeeklyBlocks)
	var skipped []string

	for subject, slots := range raw {
		for _, slot := range slots {
			from, okFrom := ParseClock(slot.From)
			to, okTo := ParseClock(slot.To)
			if !okFrom || !okTo {
				skipped = append(skipped, fmt.Sprintf("%s: 时刻无效 (%q-%q)", subject, slot.From, slot.To))
				continue
			}
			if from >= to {
				skipped = append(skipped, fmt.Sprintf("%s: 起止倒置 (%s-%s)", subject, from, to))
				continue
			}

			day, recognized := NormalizeDayToken(string(slot.Day))
			if !recognized {
				if strict {
					skipped = append(skipped, fmt.Sprintf("%s: 星期标记无法识别 (%q)，已剔除", subject, string(slot.Day)))
					continue
				}
				// 宽松模式沿用历史数据口径：回退周一，但仍上报
				skipped = append(skipped, fmt.Sprintf("%s: 星期标记无法识别 (%q)，回退周一", subject, string(slot.Day)))
			}

			blocks[day] = append(blocks[day], ScheduleBlock{
				Day:     day,
				Start:   from,
				End:     to,
				Kind:    BlockAcademy,
				Subject: subject,
			})
		}
	}

	return blocks, skipped
}

// NormalizeForDay 解析版本并规范化后仅取某一日的学院区块
func NormalizeForDay(versions model.TimetableVersionList, now time.Time, day DayOfWeek, strict bool) []ScheduleBlock {
	raw := ResolveTimetableVersion(versions, now)
	if raw == nil {
		return nil
	}
	blocks, _ := NormalizeWeeklyTimetable(raw, strict)
	return blocks[day]
}
