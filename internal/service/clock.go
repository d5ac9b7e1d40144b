package service

import (
	"fmt"
	"strings"
	"time"
)

// ── 时刻与星期基础类型 ──
//
// 引擎内部一律使用"自零点起的分钟数"做区间运算，"HH:MM" 字符串只在
// 边界处解析一次。所有实时计算都显式接收 now 参数，引擎内部不读系统
// 时钟，保证可测性。

// TimeOfDay 自零点起的分钟数，取值 0-1439
type TimeOfDay int

// Minutes 返回分钟数值
func (t TimeOfDay) Minutes() int { return int(t) }

// String 格式化为 "HH:MM"
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ParseClock 解析 "HH:MM" 为 TimeOfDay
// 畸形输入返回 ok=false，调用方按"缺失"处理（计 0，不报错）
func ParseClock(s string) (TimeOfDay, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 5 || s[2] != ':' {
		return 0, false
	}
	for _, c := range []byte{s[0], s[1], s[3], s[4]} {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, false
	}
	return TimeOfDay(h*60 + m), true
}

// ParseClockPtr 解析可空的 "HH:MM" 指针
func ParseClockPtr(s *string) (TimeOfDay, bool) {
	if s == nil {
		return 0, false
	}
	return ParseClock(*s)
}

// ClockOf 从 time.Time 提取当日时刻
func ClockOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// DayOfWeek 规范化星期枚举，周日=0（与历史数据的数字编码一致）
type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// String 返回英文缩写
func (d DayOfWeek) String() string {
	names := [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if d < 0 || int(d) > 6 {
		return fmt.Sprintf("DayOfWeek(%d)", int(d))
	}
	return names[d]
}

// DayOf 从 time.Time 提取规范化星期
func DayOf(t time.Time) DayOfWeek {
	return DayOfWeek(int(t.Weekday())) // time.Sunday == 0，编码一致
}

// ── 星期标记规范化（唯一入口）──
//
// 历史数据中 day 字段的编码极不统一：周日=0 的数字、数字字符串、
// 韩文星期名（월/월요일 等）、英文缩写混用。所有外部标记必须经此
// 入口规范化后才能进入分区器/状态解析器。

// dayTokenTable 字符串标记 → 规范星期
var dayTokenTable = map[string]DayOfWeek{
	// 韩文单字与全称
	"일": Sunday, "월": Monday, "화": Tuesday, "수": Wednesday,
	"목": Thursday, "금": Friday, "토": Saturday,
	"일요일": Sunday, "월요일": Monday, "화요일": Tuesday, "수요일": Wednesday,
	"목요일": Thursday, "금요일": Friday, "토요일": Saturday,
	// 英文缩写与全称
	"sun": Sunday, "mon": Monday, "tue": Tuesday, "wed": Wednesday,
	"thu": Thursday, "fri": Friday, "sat": Saturday,
	"sunday": Sunday, "monday": Monday, "tuesday": Tuesday, "wednesday": Wednesday,
	"thursday": Thursday, "friday": Friday, "saturday": Saturday,
}

// NormalizeDayToken 将任意历史编码的星期标记规范化
//
// 无法识别的标记返回 (Monday, false)：宽松口径的调用方沿用历史数据
// 口径直接采用周一回退值，严格口径的调用方据 ok=false 剔除该时段。
func NormalizeDayToken(token string) (DayOfWeek, bool) {
	trimmed := strings.TrimSpace(token)

	// 数字或数字字符串：周日=0 的 0-6 约定
	if n, err := parseDayNumber(trimmed); err == nil {
		if n >= 0 && n <= 6 {
			return DayOfWeek(n), true
		}
		return Monday, false
	}

	if d, ok := dayTokenTable[strings.ToLower(trimmed)]; ok {
		return d, true
	}
	return Monday, false
}

func parseDayNumber(s string) (int, error) {
	// 合法的星期数字最多两位，超长数字串直接拒绝，避免累乘溢出回绕
	if s == "" || len(s) > 2 {
		return 0, fmt.Errorf("not a day number")
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("not a number")
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}
