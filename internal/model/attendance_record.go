package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 活动区段类别 ──

const (
	CategoryMeal   = "MEAL"   // 用餐
	CategoryOuting = "OUTING" // 外出
	// 其余类别值为学院科目名（按科目记学院时长）
)

// ActivitySegment 当日活动区段（学院课、用餐、外出）
// End 为 nil 表示区段仍在进行中
type ActivitySegment struct {
	Category string  `json:"category"`
	Start    string  `json:"start"`         // "HH:MM"
	End      *string `json:"end,omitempty"` // "HH:MM"，nil=进行中
}

// SegmentList 对应 PostgreSQL JSONB 的区段数组，实现 GORM Scanner/Valuer 接口。
type SegmentList []ActivitySegment

// Scan 将 JSONB 文本解析为区段列表
func (s *SegmentList) Scan(src interface{}) error {
	if src == nil {
		*s = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("SegmentList.Scan: unsupported type %T", src)
	}
	if len(data) == 0 {
		*s = SegmentList{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// Value 将区段列表序列化为 JSONB 文本
func (s SegmentList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// AttendanceRecord 考勤记录表 — 对应 attendance_records
// 每 (学生, 日期) 一行；首次打卡时创建，之后只更新，从不删除
type AttendanceRecord struct {
	RecordID   string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"record_id"`
	StudentID  string      `gorm:"type:uuid;not null;index"                       json:"student_id"`
	RecordDate time.Time   `gorm:"type:date;not null;index"                       json:"record_date"`
	CheckIn    *string     `gorm:"type:varchar(5)"                                json:"check_in,omitempty"`  // "HH:MM"
	CheckOut   *string     `gorm:"type:varchar(5)"                                json:"check_out,omitempty"` // "HH:MM"
	Segments   SegmentList `gorm:"type:jsonb;not null;default:'[]'"               json:"segments"`
	AcademyIn  *string     `gorm:"type:varchar(5)"                                json:"academy_in,omitempty"` // 旧版单一学院进出对
	AcademyOut *string     `gorm:"type:varchar(5)"                                json:"academy_out,omitempty"`
	Status     string      `gorm:"type:varchar(10);not null;default:''"           json:"status"` // '' | late | absent
	ManualOut  bool        `gorm:"not null;default:false"                         json:"manual_out"`
	VersionedModel

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }
