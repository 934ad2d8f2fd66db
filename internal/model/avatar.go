package model

import "time"

type Avatar struct {
	ID        string        `gorm:"primaryKey" json:"id"`
	UserID    string        `gorm:"index:idx_avatars_user_created,priority:1;not null" json:"-"`
	Name      string        `json:"name"`
	Gender    string        `json:"gender"`
	SkinTone  string        `json:"skinTone"`
	Seed      int64         `json:"seed"`
	Provider  string        `json:"provider"`
	Images    []AvatarImage `gorm:"foreignKey:AvatarID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt time.Time     `gorm:"index:idx_avatars_user_created,priority:2" json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// AvatarImage is one stored view of an avatar. Rows are never updated
// after the avatar is created.
type AvatarImage struct {
	ID       string `gorm:"primaryKey" json:"id"`
	AvatarID string `gorm:"index;not null" json:"-"`
	Position int    `json:"-"`
	View     string `json:"view"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Prompt   string `json:"prompt"`
}
