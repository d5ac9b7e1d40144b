package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ── 周课表原始载荷 ──
//
// 外部编辑器写入的周课表是按科目分组的时段列表，其中 day 字段历史上
// 存在多种编码（周日=0 的数字、数字字符串、韩文/英文星期名）。此处
// 只原样保存标记，规范化统一交给排课引擎的单一入口处理。

// DayToken 原始星期标记，JSON 中可能是数字或字符串
type DayToken string

// UnmarshalJSON 数字与字符串两种形态都收敛为字符串
func (d *DayToken) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DayToken(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = DayToken(n.String())
	return nil
}

// MarshalJSON 统一以字符串输出
func (d DayToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(d))
}

// RawTimeSlot 原始时段：{day, from, to}，from/to 为 "HH:MM"
type RawTimeSlot struct {
	Day  DayToken `json:"day"`
	From string   `json:"from"`
	To   string   `json:"to"`
}

// RawTimetable 科目名 → 时段列表
type RawTimetable map[string][]RawTimeSlot

// TimetableVersion 带生效日期的课表版本
// EffectiveDate 为 "2006-01-02"；空串表示立即生效（排序时视为零值日期）
type TimetableVersion struct {
	EffectiveDate string       `json:"effective_date"`
	Data          RawTimetable `json:"data"`
}

// TimetableVersionList 按生效日期升序的版本数组，对应 JSONB 列。
//
// 兼容三种历史载荷形态：
//  1. 版本数组（当前格式）
//  2. {current: 课表, next: {effectiveDate, data}} 两版本信封
//  3. 裸科目表（最早的格式，视为立即生效的单版本）
type TimetableVersionList []TimetableVersion

// UnmarshalJSON 识别三种载荷形态并归一为版本数组
func (l *TimetableVersionList) UnmarshalJSON(data []byte) error {
	// 形态1: 版本数组
	var versions []TimetableVersion
	if err := json.Unmarshal(data, &versions); err == nil {
		*l = versions
		return nil
	}

	// 形态2: current/next 信封
	var envelope struct {
		Current RawTimetable `json:"current"`
		Next    *struct {
			EffectiveDate string       `json:"effectiveDate"`
			Data          RawTimetable `json:"data"`
		} `json:"next"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Current != nil {
		result := TimetableVersionList{{EffectiveDate: "", Data: envelope.Current}}
		if envelope.Next != nil {
			result = append(result, TimetableVersion{
				EffectiveDate: envelope.Next.EffectiveDate,
				Data:          envelope.Next.Data,
			})
		}
		*l = result
		return nil
	}

	// 形态3: 裸科目表
	var flat RawTimetable
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("TimetableVersionList: 无法识别的课表载荷: %w", err)
	}
	*l = TimetableVersionList{{EffectiveDate: "", Data: flat}}
	return nil
}

// Scan 实现 GORM Scanner
func (l *TimetableVersionList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("TimetableVersionList.Scan: unsupported type %T", src)
	}
	if len(data) == 0 {
		*l = TimetableVersionList{}
		return nil
	}
	return l.UnmarshalJSON(data)
}

// Value 实现 GORM Valuer，始终以版本数组形态落库
func (l TimetableVersionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]TimetableVersion(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// StudentTimetable 学生周课表 — 对应 student_timetables
// 版本只追加不删除，旧版本保留至计算出的切换点之后
type StudentTimetable struct {
	TimetableID string               `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	StudentID   string               `gorm:"type:uuid;not null;uniqueIndex"                 json:"student_id"`
	Versions    TimetableVersionList `gorm:"type:jsonb;not null;default:'[]'"               json:"versions"`
	VersionedModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (StudentTimetable) TableName() string { return "student_timetables" }
