package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin   = "ADMIN"
	RoleTeacher = "TEACHER"
	RoleUser    = "USER"
)

type User struct {
	gorm.Model
	Name           string     `json:"name" gorm:"not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Phone          string     `json:"phone" gorm:"default:''"`
	Role           string     `json:"role" gorm:"index;default:'USER'"` // ADMIN, TEACHER, USER
	Password       string     `json:"-" gorm:"not null"`
	IsBanned       bool       `json:"isBanned" gorm:"default:false"`
	BanReason      string     `json:"banReason" gorm:"default:''"`
	BannedAt       *time.Time `json:"bannedAt"`
	DeviceID       string     `json:"deviceId" gorm:"default:''"`
	DeviceBoundAt  *time.Time `json:"deviceBoundAt"`
	LastLogin      *time.Time `json:"lastLogin"`
	SessionVersion uint       `json:"-" gorm:"not null;default:0"` // bumped to revoke every issued session
}

// IsStaff reports whether the user may use the back office.
func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleTeacher
}
