package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a trader identity. The ID is a UUID assigned at registration and is
// the stable key trades are booked under.
type User struct {
	gorm.Model
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	Email        string     `json:"email" gorm:"not null;uniqueIndex"`
	DisplayName  string     `json:"displayName"`
	PasswordHash string     `json:"-" gorm:"not null"`
	JoinedAt     time.Time  `json:"joinedAt"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"max=50"`
}

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the user plus a bearer token.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// UserProfile is the public profile with trading stats derived from the
// ledger on each read.
type UserProfile struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	JoinedAt      time.Time  `json:"joinedAt"`
	LastSeenAt    *time.Time `json:"lastSeenAt,omitempty"`
	TotalTrades   int64      `json:"totalTrades"`
	OpenPositions int64      `json:"openPositions"`
	// RealisedPnL stays zero until settlement/payout logic exists.
	RealisedPnL float64 `json:"realisedPnL"`
}
