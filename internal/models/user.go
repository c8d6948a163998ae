package models

import "time"

// User is a locally registered account. Email is stored trimmed and lowercased.
type User struct {
	BaseModel

	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"size:320;uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	IsVerified                 bool       `gorm:"default:false" json:"is_verified"`
	VerificationToken          *string    `gorm:"size:16;index" json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`

	ResetPasswordToken     *string    `gorm:"size:64;uniqueIndex" json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ClearVerification drops the verification code once it has been consumed.
func (u *User) ClearVerification() {
	u.VerificationToken = nil
	u.VerificationTokenExpiresAt = nil
}

// ClearPasswordReset drops the reset token once it has been consumed.
func (u *User) ClearPasswordReset() {
	u.ResetPasswordToken = nil
	u.ResetPasswordExpiresAt = nil
}
