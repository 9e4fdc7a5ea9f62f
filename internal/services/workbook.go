package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"adboard/internal/models"
	"adboard/internal/utils/logger"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var workbookLog = logger.New("workbook")

// exportHeaders is the fixed column order of the ad export
var exportHeaders = []string{"Partner", "Iroda", "Pozíció", "Típus", "Kezdő dátum", "Záró dátum", "Státusz"}

const sheetName = "Hirdetések"

const dateLayout = "2006-01-02"

// importDateLayouts are tried in order when parsing workbook cells
var importDateLayouts = []string{
	"2006-01-02",
	"2006.01.02",
	"2006. 01. 02.",
	"01-02-06",
	"1/2/06",
}

// ExportAds serializes the ad set to a workbook, one row per ad, with
// the status derived at export time
func ExportAds(ads []models.Ad, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, header := range exportHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for i, ad := range ads {
		partnerName, office := "", ""
		if ad.Partner != nil {
			partnerName = ad.Partner.Name
			office = ad.Partner.Office
		}

		row := []interface{}{
			partnerName,
			office,
			ad.Position,
			string(ad.Type),
			ad.StartDate.Format(dateLayout),
			ad.EndDate.Format(dateLayout),
			string(ad.StatusAt(now)),
		}

		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// ImportSummary reports what the import did; partial failures are
// summarized, never fatal
type ImportSummary struct {
	Imported        int `json:"imported"`
	Duplicates      int `json:"duplicates"`
	Skipped         int `json:"skipped"`
	PartnersCreated int `json:"partnersCreated"`
}

// columnRoles maps header substrings to column roles
var columnRoles = map[string]string{
	"partner": "partner",
	"iroda":   "office",
	"office":  "office",
	"pozíció": "position",
	"pozicio": "position",
	"positio": "position",
	"típus":   "type",
	"tipus":   "type",
	"type":    "type",
	"kezd":    "start",
	"start":   "start",
	"zár":     "end",
	"lejár":   "end",
	"end":     "end",
}

// mapHeaders assigns a role to each column by substring match
func mapHeaders(header []string) map[string]int {
	roles := make(map[string]int)
	for col, text := range header {
		lower := strings.ToLower(strings.TrimSpace(text))
		for substr, role := range columnRoles {
			if strings.Contains(lower, substr) {
				if _, taken := roles[role]; !taken {
					roles[role] = col
				}
				break
			}
		}
	}
	return roles
}

func cellAt(row []string, col int, ok bool) string {
	if !ok || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func parseImportDate(value string) (time.Time, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date: %q", value)
}

// ImportAds reads a workbook and inserts the new ads inside one
// transaction. Partners are deduplicated on (name, office); rows
// matching an existing ad on (partner, position, type, start, end)
// are skipped; rows missing partner or position are skipped silently.
func ImportAds(db *gorm.DB, reader io.Reader, userID string) (*ImportSummary, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return &ImportSummary{}, nil
	}

	roles := mapHeaders(rows[0])
	if _, ok := roles["partner"]; !ok {
		return nil, fmt.Errorf("no partner column recognized")
	}
	if _, ok := roles["position"]; !ok {
		return nil, fmt.Errorf("no position column recognized")
	}

	summary := &ImportSummary{}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows[1:] {
			partnerCol, pOK := roles["partner"]
			positionCol, posOK := roles["position"]

			partnerName := cellAt(row, partnerCol, pOK)
			position := cellAt(row, positionCol, posOK)
			if partnerName == "" || position == "" {
				summary.Skipped++
				continue
			}

			officeCol, oOK := roles["office"]
			office := cellAt(row, officeCol, oOK)

			typeCol, tOK := roles["type"]
			adType := models.AdType(cellAt(row, typeCol, tOK))
			if !models.IsValidAdType(adType) {
				adType = models.AdTypePost
			}

			startCol, sOK := roles["start"]
			endCol, eOK := roles["end"]
			start, err := parseImportDate(cellAt(row, startCol, sOK))
			if err != nil {
				summary.Skipped++
				continue
			}
			end, err := parseImportDate(cellAt(row, endCol, eOK))
			if err != nil {
				summary.Skipped++
				continue
			}

			partner, created, err := models.FindOrCreatePartner(tx, partnerName, office, userID)
			if err != nil {
				return err
			}
			if created {
				summary.PartnersCreated++
			}

			// Duplicate check by exact field match
			var count int64
			if err := tx.Model(&models.Ad{}).
				Where("partner_id = ? AND position = ? AND type = ? AND start_date = ? AND end_date = ?",
					partner.ID, position, adType, start, end).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				summary.Duplicates++
				continue
			}

			ad := models.Ad{
				Position:  position,
				Type:      adType,
				StartDate: start,
				EndDate:   end,
				Active:    true,
				PartnerID: partner.ID,
				UserID:    userID,
			}
			if err := tx.Create(&ad).Error; err != nil {
				return err
			}
			summary.Imported++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	workbookLog.Info("Import finished: %d imported, %d duplicates, %d skipped, %d partners created",
		summary.Imported, summary.Duplicates, summary.Skipped, summary.PartnersCreated)

	return summary, nil
}
