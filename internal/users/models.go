package users

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusSuspended
}

// User is a workspace member. Email is unique per workspace. PasswordHash
// is bcrypt and never serialized.
type User struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Status       Status    `json:"status"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// rowImage is the full column image written to audit states and to the
// deleted_items snapshot. User's API serialization redacts password_hash,
// but recovery re-populates the row from this image, so it must carry every
// column.
type rowImage struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Status       Status    `json:"status"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u User) rowImage() rowImage { return rowImage(u) }
