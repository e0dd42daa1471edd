package model

import "time"

// Role names carried in the JWT "role" claim.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an application user record as stored in the `users`
// table.  The identity fields (ID, DisplayName, PhotoURL) are what the rest
// of the service sees of the auth provider; they are copied onto ledger
// rows so the leaderboard can render without a join.
//
// Fields:
//  ID           – UUID primary key.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  DisplayName  – public name shown on the leaderboard.
//  PhotoURL     – optional avatar URL.
//  Role         – USER or ADMIN.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	DisplayName  string    // users.display_name
	PhotoURL     string    // users.photo_url
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Identity is the acting user as seen by the service layer.
type Identity struct {
	UserID      string
	DisplayName string
	PhotoURL    string
	Role        string
}

// IsAdmin reports whether the identity may moderate submissions.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
