package models

import (
	"time"

	"gorm.io/datatypes"
)

type Partner struct {
	Base
	Name   string `gorm:"not null;index:idx_partner_name_office" json:"name" validate:"required,min=2"`
	Office string `gorm:"index:idx_partner_name_office" json:"office"`
	UserID string `gorm:"type:uuid" json:"userId"`
	User   *User  `json:"user,omitempty"`
	Ads    []Ad   `gorm:"foreignKey:PartnerID;references:ID;constraint:OnDelete:CASCADE" json:"ads,omitempty"`
}

type Ad struct {
	Base
	Position  string    `gorm:"not null" json:"position" validate:"required"`
	Content   string    `json:"content"`
	Type      AdType    `gorm:"not null;default:'post'" json:"type" validate:"required,ad_type"`
	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`
	Active    bool      `gorm:"default:true" json:"active"`
	PartnerID string    `gorm:"type:uuid;not null" json:"partnerId" validate:"required,uuid"`
	Partner   *Partner  `json:"partner,omitempty"`
	UserID    string    `gorm:"type:uuid" json:"userId"`
	User      *User     `json:"user,omitempty"`
	// Status is derived from the date window on every read, never stored
	Status AdStatus `gorm:"-" json:"status"`
}

// StatusAt derives the ad status from the date window. Both boundaries
// count as active: now == StartDate and now == EndDate are "Aktív".
func (a *Ad) StatusAt(now time.Time) AdStatus {
	if now.Before(a.StartDate) {
		return AdStatusPlanned
	}
	if now.After(a.EndDate) {
		return AdStatusClosed
	}
	return AdStatusActive
}

type ActivityLog struct {
	Base
	UserID string `gorm:"type:uuid" json:"userId"`
	// Username is snapshotted so log rows survive user deletion
	Username   string `json:"username"`
	Action     string `gorm:"not null" json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId"`
	Details    string `json:"details"`
}

type SystemSetting struct {
	Base
	Key   string         `gorm:"uniqueIndex;not null" json:"key" validate:"required"`
	Value datatypes.JSON `json:"value"`
}

// Setting keys for feature toggles
const (
	SettingDigestEnabled = "digest_enabled"
	SettingDigestAdTypes = "digest_ad_types"
)
