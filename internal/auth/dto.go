package auth

import (
	"time"

	"github.com/hanbitmall/hanbit-backend/pkg/db/models"
)

// RegisterInput is the payload for creating a customer account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    *string
}

// LoginInput carries the credential pair.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput pairs the expired access token with its refresh token.
type RefreshInput struct {
	AccessToken  string
	RefreshToken string
}

// LoginResult is the issued token set plus the authenticated user.
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}
