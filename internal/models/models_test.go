package models

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "models_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&User{}, &Partner{}, &Ad{}, &Invite{}, &ActivityLog{}, &SystemSetting{},
	))
	return db
}

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAdStatusAt(t *testing.T) {
	ad := Ad{
		StartDate: date("2024-01-01"),
		EndDate:   date("2024-01-31"),
	}

	t.Run("before window is planned", func(t *testing.T) {
		assert.Equal(t, AdStatusPlanned, ad.StatusAt(date("2023-12-01")))
	})

	t.Run("inside window is active", func(t *testing.T) {
		assert.Equal(t, AdStatusActive, ad.StatusAt(date("2024-01-15")))
	})

	t.Run("after window is closed", func(t *testing.T) {
		assert.Equal(t, AdStatusClosed, ad.StatusAt(date("2024-02-01")))
	})

	t.Run("boundaries count as active", func(t *testing.T) {
		assert.Equal(t, AdStatusActive, ad.StatusAt(ad.StartDate))
		assert.Equal(t, AdStatusActive, ad.StatusAt(ad.EndDate))
	})
}

func TestAdAfterFindDerivesStatus(t *testing.T) {
	db := openTestDB(t)

	partner := Partner{Name: "Acme", Office: "Budapest"}
	require.NoError(t, db.Create(&partner).Error)

	ad := Ad{
		Position:  "Forklift operator",
		Type:      AdTypePost,
		StartDate: time.Now().Add(-24 * time.Hour),
		EndDate:   time.Now().Add(24 * time.Hour),
		Active:    true,
		PartnerID: partner.ID,
	}
	require.NoError(t, db.Create(&ad).Error)

	var loaded Ad
	require.NoError(t, db.First(&loaded, "id = ?", ad.ID).Error)
	assert.Equal(t, AdStatusActive, loaded.Status)
}

func TestInviteRedeemable(t *testing.T) {
	now := time.Now()
	used := now.Add(-time.Minute)

	tests := []struct {
		name   string
		invite Invite
		want   bool
	}{
		{"open invite", Invite{ExpiresAt: now.Add(10 * time.Minute)}, true},
		{"expired invite", Invite{ExpiresAt: now.Add(-time.Minute)}, false},
		{"used invite", Invite{ExpiresAt: now.Add(10 * time.Minute), UsedAt: &used}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.invite.Redeemable(now))
		})
	}
}

func TestFindOrCreatePartnerDedupes(t *testing.T) {
	db := openTestDB(t)

	first, created, err := FindOrCreatePartner(db, "Acme", "Budapest", "")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := FindOrCreatePartner(db, "Acme", "Budapest", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	// Surrounding whitespace does not make a new partner
	padded, created, err := FindOrCreatePartner(db, "  Acme ", " Budapest  ", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, padded.ID)

	// Same name, different office is a separate partner
	third, created, err := FindOrCreatePartner(db, "Acme", "Debrecen", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)

	var count int64
	db.Model(&Partner{}).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, SetSetting(db, SettingDigestEnabled, true))

	var enabled bool
	require.NoError(t, GetSetting(db, SettingDigestEnabled, &enabled))
	assert.True(t, enabled)

	// Upsert overwrites
	require.NoError(t, SetSetting(db, SettingDigestEnabled, false))
	require.NoError(t, GetSetting(db, SettingDigestEnabled, &enabled))
	assert.False(t, enabled)

	var types []AdType
	require.NoError(t, SetSetting(db, SettingDigestAdTypes, []AdType{AdTypeCampaign}))
	require.NoError(t, GetSetting(db, SettingDigestAdTypes, &types))
	assert.Equal(t, []AdType{AdTypeCampaign}, types)

	var missing bool
	assert.ErrorIs(t, GetSetting(db, "no_such_key", &missing), gorm.ErrRecordNotFound)
}

func TestSeedDefaultSettingsKeepsOperatorChanges(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, SeedDefaultSettings(db))

	var enabled bool
	require.NoError(t, GetSetting(db, SettingDigestEnabled, &enabled))
	assert.True(t, enabled)

	require.NoError(t, SetSetting(db, SettingDigestEnabled, false))
	require.NoError(t, SeedDefaultSettings(db))

	require.NoError(t, GetSetting(db, SettingDigestEnabled, &enabled))
	assert.False(t, enabled)
}

func TestLogActivitySnapshotsUsername(t *testing.T) {
	db := openTestDB(t)

	user := User{Username: "eva", Password: "x", Status: UserStatusActive}
	require.NoError(t, db.Create(&user).Error)

	require.NoError(t, LogActivity(db, user.ID, user.Username, "delete", "partner", "p1", "Acme / Budapest"))
	require.NoError(t, db.Delete(&user).Error)

	var entry ActivityLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, "eva", entry.Username)
	assert.Equal(t, "delete", entry.Action)
}

func TestUserCanAuthenticate(t *testing.T) {
	assert.True(t, (&User{Status: UserStatusActive}).CanAuthenticate())
	assert.False(t, (&User{Status: UserStatusPending}).CanAuthenticate())
	assert.False(t, (&User{Status: UserStatusDisabled}).CanAuthenticate())
}
