package course

import "gorm.io/gorm"

// Lesson is an ordered item within a chapter
type Lesson struct {
	gorm.Model
	ChapterID     uint   `json:"chapterId" gorm:"index;not null"`
	Title         string `json:"title" gorm:"not null"`
	Description   string `json:"description" gorm:"type:text"`
	VideoURL      string `json:"videoUrl"`
	AttachmentURL string `json:"attachmentUrl"`
	AttachmentKey string `json:"attachmentKey"`
	Position      int    `json:"position" gorm:"not null;default:1"` // 1-based, contiguous per chapter
}
