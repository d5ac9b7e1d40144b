package service

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"academy-portal/backend/internal/model"
)

// ── ICS 解析器 ──────────────────────────────────────────────
//
// 职责：将学院发布的 iCalendar (RFC 5545) 日历解析为周课表时段列表。
//
// 设计决策：
//   - DTSTART/DTEND 确定星期几与起止时间
//   - 学院课表按周重复，相同 (星期, 起止时间) 的事件去重合并
//   - 无 SUMMARY 或无法解析时间的事件直接跳过，不中断导入
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024 // 5MB
	icsFetchTimeout = 30 * time.Second
	seoulTimezone   = "Asia/Seoul"
)

// FetchICSContent 从 URL 获取 ICS 内容
func FetchICSContent(rawURL string) (io.ReadCloser, error) {
	// webcal:// → https://
	u := rawURL
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}

	client := &http.Client{Timeout: icsFetchTimeout}
	resp, err := client.Get(u)
	if err != nil {
		return nil, fmt.Errorf("获取 ICS 失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("获取 ICS 失败: HTTP %d", resp.StatusCode)
	}
	// 限制响应体大小，防止恶意 URL 返回超大内容导致 OOM
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICSTimetable 解析 ICS 内容并转为某一科目的周时段列表
func ParseICSTimetable(reader io.Reader) ([]model.RawTimeSlot, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	loc, _ := time.LoadLocation(seoulTimezone)

	seen := make(map[string]bool)
	var slots []model.RawTimeSlot
	for _, evt := range cal.Events() {
		slot, ok := parseSlotEvent(evt, loc)
		if !ok {
			continue
		}
		key := string(slot.Day) + "|" + slot.From + "|" + slot.To
		if seen[key] {
			continue
		}
		seen[key] = true
		slots = append(slots, slot)
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].From < slots[j].From
	})
	return slots, nil
}

// parseSlotEvent 解析单个 VEVENT 为原始时段
func parseSlotEvent(evt *ics.VEvent, loc *time.Location) (model.RawTimeSlot, bool) {
	dtStart, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return model.RawTimeSlot{}, false
	}
	dtEnd, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
	if err != nil {
		// 若无 DTEND，尝试用 DURATION；简化处理：默认 1 小时
		if evt.GetProperty(ics.ComponentProperty(ics.PropertyDuration)) != nil {
			dtEnd = dtStart.Add(time.Hour)
		} else {
			return model.RawTimeSlot{}, false
		}
	}
	if !dtEnd.After(dtStart) {
		return model.RawTimeSlot{}, false
	}

	return model.RawTimeSlot{
		Day:  model.DayToken(strconv.Itoa(int(dtStart.Weekday()))), // 周日=0
		From: dtStart.Format("15:04"),
		To:   dtEnd.Format("15:04"),
	}, true
}

// parseICSDateTime 解析 VEVENT 的日期时间属性，兼容 UTC/TZID/本地三种写法
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	// 尝试多种 ICS 日期格式
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, val); err == nil {
			if strings.HasSuffix(layout, "Z") {
				return t.In(loc), nil
			}
			if tzid != "" {
				if tzLoc, err := time.LoadLocation(tzid); err == nil {
					return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
				}
			}
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
