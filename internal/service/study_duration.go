package service

import "academy-portal/backend/internal/model"

// ── 学习时长核算 ──
//
// 两个纯函数，针对单日考勤记录运算。畸形 "HH:MM" 一律按缺失处理并
// 计 0，负时长钳到 0，绝不让单条坏数据拖垮整个看板渲染。

// segmentMinutes 单个区段的时长（分钟），进行中区段以 now 截算
// 起点畸形计 0；负时长钳 0
func segmentMinutes(seg model.ActivitySegment, now TimeOfDay) int {
	start, ok := ParseClock(seg.Start)
	if !ok {
		return 0
	}
	end := now
	if seg.End != nil {
		e, ok := ParseClock(*seg.End)
		if !ok {
			return 0
		}
		end = e
	}
	if end <= start {
		return 0
	}
	return int(end) - int(start)
}

// CalcNetStudyMinutes 计算当日净自习分钟数
//
// gross = (checkOut 或 now) - checkIn，钳 0；再减去所有活动区段时长。
// 未打上班卡时直接返回 0。
//
// 注意：区段扣减按区段原始起止全额计算，不截断到 [checkIn, checkOut]
// 窗口内——起于打卡前或止于打卡后的区段同样全额扣除。这是历史报表的
// 既有口径（可能过扣），为保持逐月数据可比照原样保留，由测试钉死。
//
// segments 为空时回退旧版单一学院进出对（AcademyIn/AcademyOut），
// 以同样口径扣减；两者皆无则净时长即毛时长。
func CalcNetStudyMinutes(rec *model.AttendanceRecord, now TimeOfDay) int {
	if rec == nil {
		return 0
	}
	checkIn, ok := ParseClockPtr(rec.CheckIn)
	if !ok {
		return 0
	}

	checkOutOrNow := now
	if rec.CheckOut != nil {
		if out, ok := ParseClock(*rec.CheckOut); ok {
			checkOutOrNow = out
		}
	}

	gross := int(checkOutOrNow) - int(checkIn)
	if gross < 0 {
		gross = 0
	}

	external := 0
	if len(rec.Segments) > 0 {
		for _, seg := range rec.Segments {
			external += segmentMinutes(seg, now)
		}
	} else if rec.AcademyIn != nil && rec.AcademyOut != nil {
		in, okIn := ParseClock(*rec.AcademyIn)
		out, okOut := ParseClock(*rec.AcademyOut)
		if okIn && okOut && out > in {
			external = int(out) - int(in)
		}
	}

	net := gross - external
	if net < 0 {
		net = 0
	}
	return net
}

// CalcDurationByCategory 按类别汇总当日区段时长（分钟）
//
// 与打卡窗口完全无关：对当日存在的全部区段原样求和，进行中区段以
// now 截算。供类别级报表使用（如某月学院总分钟数按日相加）。
func CalcDurationByCategory(segments model.SegmentList, now TimeOfDay) map[string]int {
	totals := make(map[string]int)
	for _, seg := range segments {
		m := segmentMinutes(seg, now)
		if m == 0 {
			continue
		}
		totals[seg.Category] += m
	}
	return totals
}
