package models

import "time"

// RevokedToken marks a JWT id as logged out until the token would have expired anyway.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:36" json:"jti" bson:"_id"`
	UserID    string    `gorm:"size:36;index" json:"user_id" bson:"userId"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at" bson:"expiresAt"`
	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}
