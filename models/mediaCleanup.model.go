package models

import "gorm.io/gorm"

// MediaCleanup is a remote object whose deletion failed and is retried by the scheduler.
type MediaCleanup struct {
	gorm.Model
	ObjectKey string `json:"objectKey" gorm:"index;not null"`
	Attempts  int    `json:"attempts" gorm:"default:0"`
	LastError string `json:"lastError" gorm:"type:text"`
}
