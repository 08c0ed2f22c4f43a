// internal/model/profile.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is the user's account row. Only WalletAddress matters to the
// core: it is the issuance precondition and the certificate recipient.
type Profile struct {
	UserID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username      string         `gorm:"not null" json:"username"`
	Email         string         `gorm:"uniqueIndex;not null" json:"email"`
	WalletAddress *string        `gorm:"uniqueIndex" json:"wallet_address,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

type ContextKey string

// UserIDKey is the request-context key for the authenticated user.
const UserIDKey ContextKey = "userID"

// LinkWalletRequest binds a Solana wallet to the profile.
type LinkWalletRequest struct {
	WalletAddress string `json:"wallet_address" validate:"required,min=32,max=44"`
}
