package model

import "time"

// FileRef points at an uploaded chat image or attachment
type FileRef struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type AISession struct {
	ID        string      `gorm:"primaryKey" json:"id"`
	UserID    string      `gorm:"index;not null" json:"-"`
	Name      string      `gorm:"not null" json:"name"`
	Model     string      `gorm:"not null" json:"model"`
	Messages  []AIMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type AIMessage struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	SessionID   string    `gorm:"index;not null" json:"-"`
	Position    int       `json:"-"`
	Role        string    `gorm:"not null" json:"role"`
	Content     string    `json:"content"`
	Images      []FileRef `gorm:"serializer:json" json:"images,omitempty"`
	Attachments []FileRef `gorm:"serializer:json" json:"attachments,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
