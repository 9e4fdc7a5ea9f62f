package models

import (
	"time"
)

type User struct {
	Base
	Username    string     `gorm:"uniqueIndex;not null" json:"username" validate:"required,min=3"`
	Password    string     `gorm:"not null" json:"-"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Role        UserRole   `gorm:"not null;default:'user'" json:"role"`
	Status      UserStatus `gorm:"not null;default:'pending'" json:"status"`
	DisplayName string     `json:"displayName"`
	// AvatarPath is the stored object key; AvatarURL is signed on read
	AvatarPath          string     `json:"-"`
	AvatarURL           string     `gorm:"-" json:"avatarUrl,omitempty"`
	LastSeenAt          *time.Time `json:"lastSeenAt,omitempty"`
	ResetToken          string     `gorm:"index" json:"-"`
	ResetTokenExpiresAt *time.Time `json:"-"`
	ApprovalToken       string     `gorm:"index" json:"-"`
}

// CanAuthenticate reports whether the account may hold a session at all.
// Pending and disabled users are rejected even with correct credentials.
func (u *User) CanAuthenticate() bool {
	return u.Status == UserStatusActive
}

type Invite struct {
	Base
	Token       string     `gorm:"uniqueIndex;not null" json:"token"`
	Email       string     `gorm:"not null" json:"email" validate:"required,email"`
	Role        UserRole   `gorm:"not null;default:'user'" json:"role" validate:"required,user_role"`
	CreatedByID string     `gorm:"type:uuid;not null" json:"createdById"`
	CreatedBy   *User      `json:"createdBy,omitempty"`
	ExpiresAt   time.Time  `gorm:"not null" json:"expiresAt"`
	UsedAt      *time.Time `json:"usedAt,omitempty"`
}

// Redeemable reports whether the invite is still open at the given time
func (i *Invite) Redeemable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}
