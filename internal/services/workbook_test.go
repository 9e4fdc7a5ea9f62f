package services

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"adboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "services_test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Partner{}, &models.Ad{},
		&models.Invite{}, &models.ActivityLog{}, &models.SystemSetting{},
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

// buildWorkbook assembles an import file from a header row and data rows
func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportAds(t *testing.T) {
	db := openTestDB(t)

	buf := buildWorkbook(t, [][]interface{}{
		{"Partner neve", "Iroda", "Pozíció megnevezése", "Hirdetés típusa", "Kezdő dátum", "Záró dátum"},
		{"Acme", "Budapest", "Targoncavezető", "kampány", "2026-09-01", "2026-09-30"},
		{"Acme", "Budapest", "Raktáros", "post", "2026-09-01", "2026-10-15"},
		{"Beta Kft", "Debrecen", "Operátor", "nonsense type", "2026.09.05", "2026.09.25"},
	})

	summary, err := ImportAds(db, buf, "")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Imported)
	assert.Equal(t, 0, summary.Duplicates)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 2, summary.PartnersCreated)

	// Unknown type falls back to post
	var fallback models.Ad
	require.NoError(t, db.First(&fallback, "position = ?", "Operátor").Error)
	assert.Equal(t, models.AdTypePost, fallback.Type)

	// Both Acme rows share one partner
	var partners int64
	db.Model(&models.Partner{}).Where("name = ?", "Acme").Count(&partners)
	assert.EqualValues(t, 1, partners)
}

func TestImportAdsSkipsAndDedupes(t *testing.T) {
	db := openTestDB(t)

	rows := [][]interface{}{
		{"Partner", "Iroda", "Pozíció", "Típus", "Kezdés", "Lejárat"},
		{"Acme", "Budapest", "Targoncavezető", "post", "2026-09-01", "2026-09-30"},
		{"", "Budapest", "Hegesztő", "post", "2026-09-01", "2026-09-30"},
		{"Acme", "Budapest", "", "post", "2026-09-01", "2026-09-30"},
		{"Acme", "Budapest", "Lakatos", "post", "not a date", "2026-09-30"},
	}

	summary, err := ImportAds(db, buildWorkbook(t, rows), "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 3, summary.Skipped)

	// Re-importing the same file only yields duplicates
	summary, err = ImportAds(db, buildWorkbook(t, rows), "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Duplicates)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 0, summary.PartnersCreated)

	var ads int64
	db.Model(&models.Ad{}).Count(&ads)
	assert.EqualValues(t, 1, ads)
}

func TestImportAdsRejectsUnmappableHeader(t *testing.T) {
	db := openTestDB(t)

	buf := buildWorkbook(t, [][]interface{}{
		{"oszlop1", "oszlop2"},
		{"Acme", "Budapest"},
	})

	_, err := ImportAds(db, buf, "")
	assert.Error(t, err)
}

func TestExportAds(t *testing.T) {
	partner := models.Partner{Name: "Acme", Office: "Budapest"}
	ads := []models.Ad{
		{
			Position:  "Targoncavezető",
			Type:      models.AdTypeCampaign,
			StartDate: date("2026-09-01"),
			EndDate:   date("2026-09-30"),
			Partner:   &partner,
		},
	}

	f, err := ExportAds(ads, date("2026-09-15"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, exportHeaders, rows[0])
	assert.Equal(t, []string{
		"Acme", "Budapest", "Targoncavezető", "kampány",
		"2026-09-01", "2026-09-30", "Aktív",
	}, rows[1])
}

func TestExportImportRoundTrip(t *testing.T) {
	db := openTestDB(t)

	partner := models.Partner{Name: "Acme", Office: "Budapest"}
	require.NoError(t, db.Create(&partner).Error)
	ad := models.Ad{
		Position:  "Targoncavezető",
		Type:      models.AdTypeCampaign,
		StartDate: date("2026-09-01"),
		EndDate:   date("2026-09-30"),
		Active:    true,
		PartnerID: partner.ID,
		Partner:   &partner,
	}
	require.NoError(t, db.Create(&ad).Error)

	f, err := ExportAds([]models.Ad{ad}, time.Now())
	require.NoError(t, err)
	defer f.Close()

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	// The exported file re-imports as a pure duplicate
	summary, err := ImportAds(db, &buf, "")
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Duplicates)
}
