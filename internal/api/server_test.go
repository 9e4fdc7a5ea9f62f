package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"adboard/internal/config"
	"adboard/internal/db"
	"adboard/internal/models"
	"adboard/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"
)

// recorderMailer collects outbound mail during route tests
type recorderMailer struct {
	sent []string
}

func (m *recorderMailer) Send(to, subject, body string) error {
	m.sent = append(m.sent, to)
	return nil
}

func setupTestServer(t *testing.T) (*Server, *recorderMailer) {
	dbPath := filepath.Join(t.TempDir(), fmt.Sprintf("api_test_%d.db", time.Now().UnixNano()))
	cfg := config.LoadTestConfig(dbPath)

	// Sessions must work with nothing but the config secret
	os.Unsetenv("JWT_SECRET")

	require.NoError(t, db.Connect(cfg))
	t.Cleanup(func() {
		db.Close()
		db.DB = nil
	})

	mailer := &recorderMailer{}
	server := NewServer(cfg, db.GetDB(), mailer, nil)
	require.NotNil(t, server)
	return server, mailer
}

func createTestUser(t *testing.T, username, password string, role models.UserRole, status models.UserStatus) *models.User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Username:    username,
		Password:    string(hashed),
		Email:       username + "@example.com",
		DisplayName: username,
		Role:        role,
		Status:      status,
	}
	require.NoError(t, db.GetDB().Create(user).Error)
	return user
}

func sessionToken(t *testing.T, s *Server, user *models.User) string {
	token, err := utils.GenerateSessionToken(*user, s.config.JWT.Secret)
	require.NoError(t, err)
	return token
}

func doJSON(s *Server, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Echo().ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	s, _ := setupTestServer(t)

	createTestUser(t, "alice", "password123", models.UserRoleAdmin, models.UserStatusActive)
	createTestUser(t, "pending", "password123", models.UserRoleUser, models.UserStatusPending)
	createTestUser(t, "disabled", "password123", models.UserRoleUser, models.UserStatusDisabled)

	t.Run("active user gets a session", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "alice", "password": "password123"})

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response["token"])

		// Session cookie is set HTTP-only alongside the body token
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		found := false
		for _, c := range cookies {
			if c.Name == "session" {
				found = true
				assert.True(t, c.HttpOnly)
				assert.NotEmpty(t, c.Value)
			}
		}
		assert.True(t, found)

		// Login touches last seen
		var user models.User
		require.NoError(t, db.GetDB().First(&user, "username = ?", "alice").Error)
		assert.NotNil(t, user.LastSeenAt)
	})

	t.Run("login token is accepted on the next request", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "alice", "password": "password123"})
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		// The freshly issued token must verify against the server's
		// own secret, without any environment configuration
		w = doJSON(s, http.MethodGet, "/api/v1/auth/me", response["token"], nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "alice", "password": "nope nope"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("pending user cannot log in with correct credentials", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "pending", "password": "password123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("disabled user cannot log in", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "disabled", "password": "password123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("me returns the session owner", func(t *testing.T) {
		var user models.User
		require.NoError(t, db.GetDB().First(&user, "username = ?", "alice").Error)

		w := doJSON(s, http.MethodGet, "/api/v1/auth/me", sessionToken(t, s, &user), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var me models.User
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
		assert.Equal(t, "alice", me.Username)
	})

	t.Run("me without a token is unauthorized", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoleGating(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	editor := createTestUser(t, "editor", "password123", models.UserRoleUser, models.UserStatusActive)
	viewer := createTestUser(t, "viewer", "password123", models.UserRoleViewer, models.UserStatusActive)
	visitor := createTestUser(t, "visitor", "password123", models.UserRoleVisitor, models.UserStatusActive)

	t.Run("viewer reads ads but cannot write", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/ads", sessionToken(t, s, viewer), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(s, http.MethodPost, "/api/v1/partners", sessionToken(t, s, viewer),
			map[string]string{"name": "Acme", "office": "Budapest"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("visitor sees no board data", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/ads", sessionToken(t, s, visitor), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doJSON(s, http.MethodGet, "/api/v1/partners", sessionToken(t, s, visitor), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		// Own account still works
		w = doJSON(s, http.MethodGet, "/api/v1/auth/me", sessionToken(t, s, visitor), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("user may write board data", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/partners", sessionToken(t, s, editor),
			map[string]string{"name": "Beta Kft", "office": "Debrecen"})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("management surface is admin only", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/users", sessionToken(t, s, editor), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doJSON(s, http.MethodGet, "/api/v1/users", sessionToken(t, s, admin), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(s, http.MethodGet, "/api/v1/settings", sessionToken(t, s, viewer), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestInviteFlow(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)

	w := doJSON(s, http.MethodPost, "/api/v1/invites", sessionToken(t, s, admin),
		map[string]string{"email": "new@example.com", "role": "user"})
	require.Equal(t, http.StatusCreated, w.Code)

	var invite models.Invite
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invite))
	require.NotEmpty(t, invite.Token)

	t.Run("invited registration is active immediately", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":    "invited",
			"password":    "password123",
			"displayName": "Invited User",
			"inviteToken": invite.Token,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var user models.User
		require.NoError(t, db.GetDB().First(&user, "username = ?", "invited").Error)
		assert.Equal(t, models.UserStatusActive, user.Status)
		assert.Equal(t, models.UserRoleUser, user.Role)
		assert.Equal(t, "new@example.com", user.Email)
	})

	t.Run("invite token is single use", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":    "second",
			"password":    "password123",
			"displayName": "Second User",
			"inviteToken": invite.Token,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("expired invite is rejected", func(t *testing.T) {
		expired := models.Invite{
			Token:       "expired-token-value",
			Email:       "late@example.com",
			Role:        models.UserRoleUser,
			CreatedByID: admin.ID,
			ExpiresAt:   time.Now().Add(-time.Minute),
		}
		require.NoError(t, db.GetDB().Create(&expired).Error)

		w := doJSON(s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":    "late",
			"password":    "password123",
			"displayName": "Late User",
			"inviteToken": expired.Token,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRegistrationApprovalFlow(t *testing.T) {
	s, _ := setupTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":    "applicant",
		"password":    "password123",
		"displayName": "Applicant",
		"email":       "applicant@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	require.NoError(t, db.GetDB().First(&user, "username = ?", "applicant").Error)
	assert.Equal(t, models.UserStatusPending, user.Status)
	require.NotEmpty(t, user.ApprovalToken)

	t.Run("pending account cannot log in", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "applicant", "password": "password123"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("approval activates the account", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/auth/approve/"+user.ApprovalToken, "", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(s, http.MethodPost, "/api/v1/auth/login", "",
			map[string]string{"username": "applicant", "password": "password123"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("approval token is cleared after use", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/auth/approve/"+user.ApprovalToken, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPartnerCascadeDelete(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	token := sessionToken(t, s, admin)

	partner := models.Partner{Name: "Acme", Office: "Budapest"}
	require.NoError(t, db.GetDB().Create(&partner).Error)

	ads := []models.Ad{
		{Position: "Targoncavezető", Type: models.AdTypePost, Active: true, PartnerID: partner.ID,
			StartDate: time.Now(), EndDate: time.Now().Add(30 * 24 * time.Hour)},
		{Position: "Raktáros", Type: models.AdTypeCampaign, Active: true, PartnerID: partner.ID,
			StartDate: time.Now(), EndDate: time.Now().Add(30 * 24 * time.Hour)},
	}
	require.NoError(t, db.GetDB().Create(&ads).Error)

	w := doJSON(s, http.MethodDelete, "/api/v1/partners/"+partner.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var remaining int64
	db.GetDB().Model(&models.Ad{}).Where("partner_id = ?", partner.ID).Count(&remaining)
	assert.EqualValues(t, 0, remaining)

	// The deletion landed in the activity log
	var entry models.ActivityLog
	require.NoError(t, db.GetDB().
		Where("action = ? AND entity_type = ?", "delete", "partner").
		First(&entry).Error)
	assert.Equal(t, "admin", entry.Username)
}

func TestAdLifecycle(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	token := sessionToken(t, s, admin)

	partner := models.Partner{Name: "Acme", Office: "Budapest"}
	require.NoError(t, db.GetDB().Create(&partner).Error)

	t.Run("create derives status", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/ads", token, map[string]string{
			"position":  "Targoncavezető",
			"type":      "kampány",
			"startDate": time.Now().Add(10 * 24 * time.Hour).Format("2006-01-02"),
			"endDate":   time.Now().Add(40 * 24 * time.Hour).Format("2006-01-02"),
			"partnerId": partner.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var ad models.Ad
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ad))
		assert.Equal(t, models.AdStatusPlanned, ad.Status)
	})

	t.Run("invalid type is rejected", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/ads", token, map[string]string{
			"position":  "Raktáros",
			"type":      "banner",
			"startDate": "2026-09-01",
			"endDate":   "2026-09-30",
			"partnerId": partner.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("inverted window is rejected", func(t *testing.T) {
		w := doJSON(s, http.MethodPost, "/api/v1/ads", token, map[string]string{
			"position":  "Raktáros",
			"type":      "post",
			"startDate": "2026-09-30",
			"endDate":   "2026-09-01",
			"partnerId": partner.ID,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status filter uses the derived value", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/ads?status=Tervezett", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var ads []models.Ad
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ads))
		require.Len(t, ads, 1)
		assert.Equal(t, models.AdStatusPlanned, ads[0].Status)

		w = doJSON(s, http.MethodGet, "/api/v1/ads?status=Lezárt", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ads))
		assert.Empty(t, ads)
	})

	t.Run("update returns the new partner", func(t *testing.T) {
		other := models.Partner{Name: "Beta Kft", Office: "Debrecen"}
		require.NoError(t, db.GetDB().Create(&other).Error)

		w := doJSON(s, http.MethodPost, "/api/v1/ads", token, map[string]string{
			"position":  "Operátor",
			"type":      "post",
			"startDate": "2026-09-01",
			"endDate":   "2026-09-30",
			"partnerId": partner.ID,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var ad models.Ad
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ad))

		w = doJSON(s, http.MethodPut, "/api/v1/ads/"+ad.ID, token, map[string]string{
			"position":  "Operátor",
			"type":      "post",
			"startDate": "2026-09-01",
			"endDate":   "2026-09-30",
			"partnerId": other.ID,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var updated models.Ad
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
		require.NotNil(t, updated.Partner)
		assert.Equal(t, "Beta Kft", updated.Partner.Name)
	})
}

func TestSettingsRoutes(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	token := sessionToken(t, s, admin)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/digest_enabled",
		bytes.NewBufferString("false"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.Echo().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w2 := doJSON(s, http.MethodGet, "/api/v1/settings/digest_enabled", token, nil)
	require.Equal(t, http.StatusOK, w2.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &response))
	assert.Equal(t, false, response["value"])
}

func TestWorkbookRoutes(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	token := sessionToken(t, s, admin)

	t.Run("import creates ads and partners", func(t *testing.T) {
		f := excelize.NewFile()
		rows := [][]interface{}{
			{"Partner", "Iroda", "Pozíció", "Típus", "Kezdő dátum", "Záró dátum"},
			{"Acme", "Budapest", "Targoncavezető", "post", "2026-09-01", "2026-09-30"},
		}
		for r, row := range rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue("Sheet1", cell, value))
			}
		}

		var fileBuf bytes.Buffer
		require.NoError(t, f.Write(&fileBuf))
		f.Close()

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		part, err := writer.CreateFormFile("file", "import.xlsx")
		require.NoError(t, err)
		_, err = part.Write(fileBuf.Bytes())
		require.NoError(t, err)
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/workbook/import", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		s.Echo().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var summary map[string]int
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
		assert.Equal(t, 1, summary["imported"])
		assert.Equal(t, 1, summary["partnersCreated"])
	})

	t.Run("export streams a workbook", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/workbook/export", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		// Gzip would wrap the binary body, skip it for the assertion
		req.Header.Set("Accept-Encoding", "identity")
		w := httptest.NewRecorder()
		s.Echo().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get(echoHeaderContentType),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

		exported, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer exported.Close()

		rows, err := exported.GetRows("Hirdetések")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Targoncavezető", rows[1][2])
	})
}

const echoHeaderContentType = "Content-Type"

func TestActivityLogFilters(t *testing.T) {
	s, _ := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	token := sessionToken(t, s, admin)

	require.NoError(t, models.LogActivity(db.GetDB(), admin.ID, admin.Username,
		"create", "partner", "p1", "Acme / Budapest"))
	require.NoError(t, models.LogActivity(db.GetDB(), admin.ID, admin.Username,
		"delete", "partner", "p1", "Acme / Budapest"))

	t.Run("whitelisted column filters the list", func(t *testing.T) {
		w := doJSON(s, http.MethodGet, "/api/v1/logs?action=delete", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data  []models.ActivityLog `json:"data"`
			Total int64                `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.EqualValues(t, 1, response.Total)
		require.Len(t, response.Data, 1)
		assert.Equal(t, "delete", response.Data[0].Action)
	})

	t.Run("unknown query keys never reach the query", func(t *testing.T) {
		hostile := url.Values{"action) OR 1=1 --": {"x"}}
		w := doJSON(s, http.MethodGet, "/api/v1/logs?"+hostile.Encode(), token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Total int64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.EqualValues(t, 2, response.Total)
	})
}

func TestDigestTrigger(t *testing.T) {
	s, mailer := setupTestServer(t)

	admin := createTestUser(t, "admin", "password123", models.UserRoleAdmin, models.UserStatusActive)
	token := sessionToken(t, s, admin)

	partner := models.Partner{Name: "Acme", Office: "Budapest"}
	require.NoError(t, db.GetDB().Create(&partner).Error)
	ad := models.Ad{
		Position: "Targoncavezető", Type: models.AdTypePost, Active: true, PartnerID: partner.ID,
		StartDate: time.Now().Add(-24 * time.Hour), EndDate: time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, db.GetDB().Create(&ad).Error)

	// Without a task client the digest runs inline
	w := doJSON(s, http.MethodPost, "/api/v1/digest/run", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.EqualValues(t, 1, result["sent"])
	assert.Equal(t, []string{"admin@example.com"}, mailer.sent)
}
