package models

import (
	"strings"
	"time"
)

// User represents an account returned by the user listing
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
	Department  string `json:"department,omitempty"`
	AccessLevel string `json:"accessLevel,omitempty"`

	// Role is set only by servers that issue an explicit role per account
	Role string `json:"role,omitempty"`
}

// Profile represents the signed-in user and the role resolved for them
type Profile struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsSuperuser bool   `json:"is_superuser"`
	Department  string `json:"department,omitempty"`
	AccessLevel string `json:"access_level,omitempty"`
	Role        Role   `json:"role"`
}

// ToProfile converts a User to a Profile with the given role
func (u *User) ToProfile(role Role) Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsSuperuser: u.IsSuperuser,
		Department:  u.Department,
		AccessLevel: u.AccessLevel,
		Role:        role,
	}
}

// FindUser returns the user whose username matches, ignoring case
func FindUser(users []User, username string) (*User, bool) {
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return &users[i], true
		}
	}
	return nil, false
}

// ProfileUpdate represents a partial update of the signed-in user's profile
type ProfileUpdate struct {
	Contact            *string `json:"contact,omitempty"`
	Department         *string `json:"department,omitempty"`
	RealName           *string `json:"realName,omitempty"`
	AccessLevel        *string `json:"accessLevel,omitempty"`
	ProjectAccessLevel *string `json:"projectAccessLevel,omitempty"`
}

// Empty returns true if the update changes nothing
func (p ProfileUpdate) Empty() bool {
	return p.Contact == nil && p.Department == nil && p.RealName == nil &&
		p.AccessLevel == nil && p.ProjectAccessLevel == nil
}

// UserProfile represents the stored profile record after an update
type UserProfile struct {
	ID                 int    `json:"id"`
	User               int    `json:"user"`
	Contact            string `json:"contact"`
	Department         string `json:"department"`
	RealName           string `json:"realName"`
	AccessLevel        string `json:"accessLevel"`
	ProjectAccessLevel string `json:"projectAccessLevel"`
}

// RegisterInput represents a sign-up request
type RegisterInput struct {
	Username string `json:"username" validate:"required,notblank,max=150"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// Credentials represents a sign-in request
type Credentials struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

// LogEntry represents a user log history record
type LogEntry struct {
	ID        int       `json:"id,omitempty"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}
