package internal

import (
	"fashionai/avatar-api/internal/service"
	"fashionai/avatar-api/internal/storage"
	"fashionai/avatar-api/pkg/security"

	"gorm.io/gorm"
)

type Deps struct {
	DB      *gorm.DB
	Store   storage.Storage
	Tokens  *security.TokenIssuer
	Revoker service.Revoker

	Auth    *service.Auth
	Users   *service.Users
	Avatars *service.Avatars
	Images  *service.UserImages
	Chat    *service.Chat
}
