package course

import (
	"lms/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusDraft    = "DRAFT"
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"

	TermFirst  = "FIRST"
	TermSecond = "SECOND"
	TermSummer = "SUMMER"
)

// Course represents a paid course taught by a teacher at an academic level
type Course struct {
	gorm.Model
	Title            string                      `json:"title" gorm:"not null"`
	Description      string                      `json:"description" gorm:"type:text"`
	ImageURL         string                      `json:"imageUrl"`
	ImageKey         string                      `json:"imageKey"`
	Price            float64                     `json:"price" gorm:"default:0"`
	Duration         string                      `json:"duration"`
	Term             string                      `json:"term" gorm:"default:'FIRST'"`   // FIRST, SECOND, SUMMER
	Status           string                      `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	CashNumbers      datatypes.JSONSlice[string] `json:"cashNumbers"`
	InstapayUsername string                      `json:"instapayUsername"`
	LevelID          uint                        `json:"levelId" gorm:"index;not null"`
	Level            *models.Level               `json:"level,omitempty"`
	TeacherID        uint                        `json:"teacherId" gorm:"index;not null"`
	Teacher          *models.User                `json:"teacher,omitempty"`
	Chapters         []Chapter                   `json:"chapters,omitempty"`
}
