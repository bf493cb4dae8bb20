package models

import "gorm.io/gorm"

// University is the root of the academic hierarchy.
type University struct {
	gorm.Model
	Name     string    `json:"name" gorm:"not null;index"`
	Colleges []College `json:"colleges,omitempty"`
}

type College struct {
	gorm.Model
	Name         string       `json:"name" gorm:"not null"`
	UniversityID uint         `json:"universityId" gorm:"index;not null"`
	University   *University  `json:"university,omitempty"`
	Departments  []Department `json:"departments,omitempty"`
}

type Department struct {
	gorm.Model
	Name      string   `json:"name" gorm:"not null"`
	CollegeID uint     `json:"collegeId" gorm:"index;not null"`
	College   *College `json:"college,omitempty"`
	Levels    []Level  `json:"levels,omitempty"`
}

// Level is an academic year/grade inside a department. Courses hang off levels.
type Level struct {
	gorm.Model
	Name         string      `json:"name" gorm:"not null"`
	DepartmentID uint        `json:"departmentId" gorm:"index;not null"`
	Department   *Department `json:"department,omitempty"`
}

func (u *University) GetName() string { return u.Name }
func (c *College) GetName() string    { return c.Name }
func (d *Department) GetName() string { return d.Name }
func (l *Level) GetName() string      { return l.Name }
