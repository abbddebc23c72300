package models

import (
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Scope is the value carried in the token's scope claim, e.g. SCOPE_ADMIN.
func (r Role) Scope() string {
	return "SCOPE_" + string(r)
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"   json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"       json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	FullName     string    `gorm:"not null;default:''"        json:"full_name"`
	DateOfBirth  time.Time `                                  json:"date_of_birth"`
	IsMale       bool      `gorm:"not null;default:false"     json:"is_male"`
	Role         Role      `gorm:"type:varchar(16);not null"  json:"role"`
	CreatedAt    time.Time `                                  json:"created_at"`
	UpdatedAt    time.Time `                                  json:"updated_at"`
}

// RevokedToken rows outlive their usefulness once ExpiresAt passes; the
// reaper deletes them.
type RevokedToken struct {
	JTI       string    `gorm:"primaryKey;size:64"  json:"jti"`
	ExpiresAt time.Time `gorm:"index;not null"      json:"expires_at"`
	CreatedAt time.Time `                           json:"created_at"`
}
