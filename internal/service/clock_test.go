package service

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input string
		want  TimeOfDay
		ok    bool
	}{
		{"00:00", 0, true},
		{"09:30", 570, true},
		{"23:59", 1439, true},
		{" 15:30 ", 930, true}, // 前后空白容忍
		{"24:00", 0, false},
		{"12:60", 0, false},
		{"9:30", 0, false}, // 必须两位
		{"0930", 0, false},
		{"ab:cd", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseClock(tt.input)
		if ok != tt.ok {
			t.Errorf("ParseClock(%q): 期望 ok=%v，实际=%v", tt.input, tt.ok, ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseClock(%q): 期望 %d，实际=%d", tt.input, tt.want, got)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if s := TimeOfDay(570).String(); s != "09:30" {
		t.Errorf("期望 09:30，实际=%s", s)
	}
	if s := TimeOfDay(0).String(); s != "00:00" {
		t.Errorf("期望 00:00，实际=%s", s)
	}
}

func TestClockOf(t *testing.T) {
	at := time.Date(2026, 3, 2, 15, 45, 59, 0, time.Local)
	if got := ClockOf(at); got != 15*60+45 {
		t.Errorf("期望 %d，实际=%d", 15*60+45, got)
	}
}

func TestNormalizeDayToken(t *testing.T) {
	tests := []struct {
		token string
		want  DayOfWeek
		ok    bool
	}{
		// 数字与数字字符串（周日=0）
		{"0", Sunday, true},
		{"3", Wednesday, true},
		{"6", Saturday, true},
		{"7", Monday, false}, // 越界回退
		// 韩文单字与全称
		{"월", Monday, true},
		{"수", Wednesday, true},
		{"토요일", Saturday, true},
		{"일요일", Sunday, true},
		// 英文缩写与全称（大小写不敏感）
		{"Mon", Monday, true},
		{"FRIDAY", Friday, true},
		{" tue ", Tuesday, true},
		// 无法识别
		{"someday", Monday, false},
		{"", Monday, false},
		// 超长数字串整体拒绝，不因整型溢出回绕进 0-6 被误收
		{"18446744073709551616", Monday, false},
		{"007", Monday, false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDayToken(tt.token)
		if ok != tt.ok {
			t.Errorf("NormalizeDayToken(%q): 期望 ok=%v，实际=%v", tt.token, tt.ok, ok)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeDayToken(%q): 期望 %v，实际=%v", tt.token, tt.want, got)
		}
	}
}
