package models

import (
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}

type User struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Username  string     `gorm:"uniqueIndex;size:50;not null" json:"username" bson:"username"`
	Email     *string    `gorm:"uniqueIndex;size:100" json:"email,omitempty" bson:"email,omitempty"`
	Password  string     `gorm:"size:255" json:"-" bson:"password"`
	Role      string     `gorm:"size:20;not null;default:editor" json:"role" bson:"role"`
	IsActive  bool       `gorm:"not null" json:"isActive" bson:"isActive"`
	Provider  string     `gorm:"size:20;default:local" json:"provider" bson:"provider"`
	LastLogin *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Username: u.Username, Email: u.EmailValue()}
}

// UserSummary is the uploader shape embedded in media responses.
type UserSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
