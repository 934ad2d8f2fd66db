// Package model defines database models
package model

import "time"

type User struct {
	ID           string     `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"` // Always stored lowercase
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null" json:"name"`
	Active       bool       `gorm:"not null;default:true" json:"isActive"`
	LoginCount   int        `gorm:"not null;default:0" json:"loginCount"`
	LastLogin    *time.Time `json:"lastLogin"`

	PINHash        *string    `json:"-"`
	PINExpiresAt   *time.Time `json:"-"`
	PINAttempts    int        `gorm:"not null;default:0" json:"-"`
	PINLockedUntil *time.Time `json:"-"`

	MaleAvatarFilename   *string `json:"maleAvatarFilename"`
	FemaleAvatarFilename *string `json:"femaleAvatarFilename"`

	// Bumped by every conditional update so concurrent writers can't
	// silently overwrite each other
	Version int64 `gorm:"not null;default:1" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Avatars    []Avatar    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	UserImages []UserImage `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AISessions []AISession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserPayload is the minimal identity handed out in tokens and responses
type UserPayload struct {
	ID                   string  `json:"id"`
	Email                string  `json:"email"`
	Name                 string  `json:"name"`
	MaleAvatarFilename   *string `json:"maleAvatarFilename"`
	FemaleAvatarFilename *string `json:"femaleAvatarFilename"`
}

func (u *User) Payload() UserPayload {
	return UserPayload{
		ID:                   u.ID,
		Email:                u.Email,
		Name:                 u.Name,
		MaleAvatarFilename:   u.MaleAvatarFilename,
		FemaleAvatarFilename: u.FemaleAvatarFilename,
	}
}

// PINLocked reports whether the PIN lock window is still running at t
func (u *User) PINLocked(t time.Time) bool {
	return u.PINLockedUntil != nil && u.PINLockedUntil.After(t)
}

// PINExpired reports whether the current PIN is past its TTL at t
func (u *User) PINExpired(t time.Time) bool {
	return u.PINExpiresAt == nil || t.After(*u.PINExpiresAt)
}
