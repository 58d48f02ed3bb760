package models

import (
	"strconv"
	"time"
)

// Account represents a row in the PostgreSQL accounts table.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	SecretHash   string    `json:"-"` // never serialize
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	IsAdmin      bool      `json:"isAdmin"`
	AvatarKey    string    `json:"-"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// NewAccount is the input of a credential-store insert. SecretHash is
// already hashed by the identity service.
type NewAccount struct {
	Username   string
	SecretHash string
	Email      string
	Bio        string
	IsAdmin    bool
}

// PublicAccountView is the account shape returned to clients.
type PublicAccountView struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Bio            string    `json:"bio"`
	IsAdmin        bool      `json:"isAdmin"`
	RegisteredAt   time.Time `json:"registeredAt"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
}

// AccountSummary is a row of the admin account listing.
type AccountSummary struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	IsAdmin      bool      `json:"isAdmin"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// View strips the credential fields from a.
func (a Account) View() PublicAccountView {
	v := PublicAccountView{
		ID:           a.ID,
		Username:     a.Username,
		Email:        a.Email,
		Bio:          a.Bio,
		IsAdmin:      a.IsAdmin,
		RegisteredAt: a.RegisteredAt,
	}
	if a.AvatarKey != "" {
		v.ProfilePicture = AvatarPath(a.ID)
	}
	return v
}

// RegisterRequest is the JSON body for POST /api/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`
}

// LoginRequest is the JSON body for POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the JSON body for PUT /api/profile/{id}.
type UpdateProfileRequest struct {
	Email string `json:"email"`
	Bio   string `json:"bio"`
}

// MessageResponse is the acknowledgement body of mutating endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// AvatarPath is the public URL of an account's profile picture.
func AvatarPath(accountID int64) string {
	return "/api/profile/" + strconv.FormatInt(accountID, 10) + "/avatar"
}

// AvatarKey is the object key of an account's profile picture.
func AvatarKey(accountID int64) string {
	return "avatars/" + strconv.FormatInt(accountID, 10)
}
