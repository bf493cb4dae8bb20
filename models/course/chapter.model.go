package course

import "gorm.io/gorm"

// Chapter is an ordered section of a course
type Chapter struct {
	gorm.Model
	CourseID uint     `json:"courseId" gorm:"index;not null"`
	Title    string   `json:"title" gorm:"not null"`
	Position int      `json:"position" gorm:"not null;default:1"` // 1-based, contiguous per course
	Lessons  []Lesson `json:"lessons,omitempty"`
}
