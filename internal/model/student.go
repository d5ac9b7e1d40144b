package model

// Student 学生表 — 对应 students
type Student struct {
	StudentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	Name      string `gorm:"type:varchar(50);not null"                      json:"name"`
	Grade     string `gorm:"type:varchar(20)"                               json:"grade,omitempty"`
	SeatNo    string `gorm:"type:varchar(10)"                               json:"seat_no,omitempty"`
	Phone     string `gorm:"type:varchar(20)"                               json:"phone,omitempty"`
	IsActive  bool   `gorm:"not null;default:true"                          json:"is_active"` // 在读学生才纳入迟到监控
	VersionedModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
