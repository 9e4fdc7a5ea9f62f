package models

import (
	"encoding/json"
	"errors"
	"strings"

	"adboard/internal/events"

	"gorm.io/gorm"
)

// GetPartnerByNameOffice retrieves a partner by its (name, office) pair
func GetPartnerByNameOffice(db *gorm.DB, name, office string) (*Partner, error) {
	partner := &Partner{}
	if err := db.Where("name = ? AND office = ?", name, office).First(partner).Error; err != nil {
		return nil, err
	}
	return partner, nil
}

// FindOrCreatePartner deduplicates partners on the trimmed
// (name, office) pair and reports whether a new row was created
func FindOrCreatePartner(db *gorm.DB, name, office, userID string) (*Partner, bool, error) {
	name = strings.TrimSpace(name)
	office = strings.TrimSpace(office)

	partner, err := GetPartnerByNameOffice(db, name, office)
	if err == nil {
		return partner, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	partner = &Partner{
		Name:   name,
		Office: office,
		UserID: userID,
	}
	if err := db.Create(partner).Error; err != nil {
		return nil, false, err
	}
	return partner, true, nil
}

// GetSetting unmarshals the JSON value of a system setting into out.
// Returns gorm.ErrRecordNotFound when the key is absent.
func GetSetting(db *gorm.DB, key string, out interface{}) error {
	var setting SystemSetting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		return err
	}
	return json.Unmarshal(setting.Value, out)
}

// SetSetting upserts a system setting with a JSON-encoded value
func SetSetting(db *gorm.DB, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	var setting SystemSetting
	if err := db.Where("key = ?", key).First(&setting).Error; err != nil {
		setting = SystemSetting{Key: key, Value: raw}
		return db.Create(&setting).Error
	}

	setting.Value = raw
	return db.Save(&setting).Error
}

// LogActivity appends a row to the audit trail. Failures are reported
// to the caller but never block the operation being logged.
func LogActivity(db *gorm.DB, userID, username, action, entityType, entityID, details string) error {
	entry := ActivityLog{
		UserID:     userID,
		Username:   username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := db.Create(&entry).Error; err != nil {
		return err
	}

	events.Emit("activity.logged", &entry)
	return nil
}
