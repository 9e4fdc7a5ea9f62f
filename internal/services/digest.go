package services

import (
	"time"

	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"gorm.io/gorm"
)

var digestLog = logger.New("digest")

// DigestWindow is how far ahead the digest looks for expiring ads
const DigestWindow = 7 * 24 * time.Hour

// DigestResult summarizes a digest run. The job never aborts early;
// per-recipient failures are collected here.
type DigestResult struct {
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// RunDigest sends one expiring-ads summary to every active user with
// an email address, honoring the digest feature toggles
func RunDigest(db *gorm.DB, mailer Mailer, now time.Time) (*DigestResult, error) {
	result := &DigestResult{}

	var enabled bool
	if err := models.GetSetting(db, models.SettingDigestEnabled, &enabled); err != nil {
		enabled = true
	}
	if !enabled {
		digestLog.Info("Digest disabled by settings, nothing to do")
		return result, nil
	}

	var types []models.AdType
	if err := models.GetSetting(db, models.SettingDigestAdTypes, &types); err != nil || len(types) == 0 {
		types = models.AdTypes()
	}

	var ads []models.Ad
	if err := db.Preload("Partner").
		Where("active = ? AND end_date >= ? AND end_date <= ? AND type IN ?",
			true, now, now.Add(DigestWindow), types).
		Order("end_date asc").
		Find(&ads).Error; err != nil {
		return nil, digestLog.Error("Failed to load expiring ads", err)
	}

	var users []models.User
	if err := db.Where("status = ? AND email <> ''", models.UserStatusActive).Find(&users).Error; err != nil {
		return nil, digestLog.Error("Failed to load digest recipients", err)
	}

	if len(ads) == 0 {
		result.Skipped = len(users)
		digestLog.Info("No expiring ads, skipped %d recipients", result.Skipped)
		return result, nil
	}

	for i := range users {
		subject, body := DigestEmail(&users[i], ads)
		if err := mailer.Send(users[i].Email, subject, body); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, users[i].Email+": "+err.Error())
			continue
		}
		result.Sent++
	}

	digestLog.Success("Digest finished: %d sent, %d skipped, %d failed",
		result.Sent, result.Skipped, result.Failed)

	return result, nil
}
