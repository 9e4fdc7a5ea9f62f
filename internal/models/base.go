package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleUser    UserRole = "user"
	UserRoleViewer  UserRole = "viewer"
	UserRoleVisitor UserRole = "visitor"
)

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type AdType string

const (
	AdTypeCampaign   AdType = "kampány"
	AdTypePost       AdType = "post"
	AdTypeTopPost    AdType = "kiemelt post"
	AdTypeProfession AdType = "Profession"
)

// AdStatus is derived from the ad's date window, never stored
type AdStatus string

const (
	AdStatusPlanned AdStatus = "Tervezett"
	AdStatusActive  AdStatus = "Aktív"
	AdStatusClosed  AdStatus = "Lezárt"
)

// IsValidUserRole checks if a given role is valid
func IsValidUserRole(role UserRole) bool {
	switch role {
	case UserRoleAdmin, UserRoleUser, UserRoleViewer, UserRoleVisitor:
		return true
	default:
		return false
	}
}

// IsValidUserStatus checks if a given status is valid
func IsValidUserStatus(status UserStatus) bool {
	switch status {
	case UserStatusPending, UserStatusActive, UserStatusDisabled:
		return true
	default:
		return false
	}
}

// IsValidAdType checks if a given ad type is valid
func IsValidAdType(t AdType) bool {
	switch t {
	case AdTypeCampaign, AdTypePost, AdTypeTopPost, AdTypeProfession:
		return true
	default:
		return false
	}
}

// AdTypes lists every known ad type
func AdTypes() []AdType {
	return []AdType{AdTypeCampaign, AdTypePost, AdTypeTopPost, AdTypeProfession}
}
