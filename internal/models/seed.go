package models

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	console "adboard/internal/utils/logger"

	"gorm.io/gorm"
)

var log = console.New("SEEDER")

// SeedDefaultSettings creates the feature-toggle rows the digest job
// reads, without overwriting operator changes
func SeedDefaultSettings(db *gorm.DB) error {
	var count int64
	db.Model(&SystemSetting{}).Where("key = ?", SettingDigestEnabled).Count(&count)
	if count == 0 {
		if err := SetSetting(db, SettingDigestEnabled, true); err != nil {
			return fmt.Errorf("failed to seed %s: %v", SettingDigestEnabled, err)
		}
	}

	db.Model(&SystemSetting{}).Where("key = ?", SettingDigestAdTypes).Count(&count)
	if count == 0 {
		if err := SetSetting(db, SettingDigestAdTypes, AdTypes()); err != nil {
			return fmt.Errorf("failed to seed %s: %v", SettingDigestAdTypes, err)
		}
	}

	return nil
}

// CreateAdminFromEnv bootstraps the first admin account from
// environment variables. Does nothing once an admin exists.
func CreateAdminFromEnv(db *gorm.DB) error {
	var count int64
	db.Model(&User{}).Where("role = ?", UserRoleAdmin).Count(&count)
	log.Info("Admin count: %d", count)
	if count > 0 {
		return nil
	}

	username, ok := os.LookupEnv("ADMIN_USERNAME")
	if !ok {
		return fmt.Errorf("ADMIN_USERNAME not set")
	}

	password, ok := os.LookupEnv("ADMIN_PASSWORD")
	if !ok {
		return fmt.Errorf("ADMIN_PASSWORD not set")
	}

	email := os.Getenv("ADMIN_EMAIL")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	user := User{
		Username:    username,
		Password:    string(hashedPassword),
		Email:       email,
		DisplayName: username,
		Role:        UserRoleAdmin,
		Status:      UserStatusActive,
	}

	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %v", err)
	}

	return nil
}
