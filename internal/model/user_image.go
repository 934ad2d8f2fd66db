package model

import "time"

const (
	ImageTypeOriginal = "original"
	ImageTypeCropped  = "cropped"
)

type UserImage struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index:idx_user_images_user_file,priority:1;not null" json:"-"`
	Filename  string    `gorm:"index:idx_user_images_user_file,priority:2;not null" json:"filename"`
	URL       string    `json:"url"`
	Type      string    `gorm:"not null;default:original" json:"type"`
	Size      int64     `json:"size"`
	Gender    *string   `json:"gender"`
	CreatedAt time.Time `json:"createdAt"`
}
