package auth

import (
	"github.com/angelmondragon/stockroom-backend/internal/users"
)

// LoginRequest captures the credentials sent to the token endpoint.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=15"`
	Password    string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token; the expired access token travels in the Authorization header.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenPair is the access/refresh pair returned by login and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResponse contains the tokens and the authenticated account.
type LoginResponse struct {
	TokenPair
	User *users.UserDTO `json:"user"`
}
