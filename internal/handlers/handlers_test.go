package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outly-dev/outly/internal/auth"
	"github.com/outly-dev/outly/internal/models"
	"github.com/outly-dev/outly/internal/router"
	"github.com/outly-dev/outly/internal/ws"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	jwt    *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// A named shared-cache DB keeps every pooled connection on the same
	// in-memory database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Society{},
		&models.SocietyMember{},
		&models.Outing{},
		&models.OutingParticipant{},
		&models.Instance{},
		&models.Settlement{},
	))

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	return &testServer{
		router: router.New(conn, jwtManager, ws.NewHub()),
		db:     conn,
		jwt:    jwtManager,
	}
}

func (s *testServer) createUser(t *testing.T, name, email string) (models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{Name: name, Email: email, PasswordHash: string(hash)}
	require.NoError(t, s.db.Create(&user).Error)

	token, err := s.jwt.Generate(user.ID, user.Email)
	require.NoError(t, err)

	return user, token
}

func (s *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// createSociety creates a society through the API so the creator gets the
// usual ADMIN membership.
func (s *testServer) createSociety(t *testing.T, token, name string) uint {
	t.Helper()

	rec := s.request(t, http.MethodPost, "/api/societies", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	society := body["society"].(map[string]interface{})
	return uint(society["id"].(float64))
}

func (s *testServer) addMember(t *testing.T, societyID, userID uint, role models.MemberRole) {
	t.Helper()

	member := models.SocietyMember{
		SocietyID: societyID,
		UserID:    userID,
		Role:      role,
		Status:    models.MemberActive,
	}
	require.NoError(t, s.db.Create(&member).Error)
}

func (s *testServer) createOuting(t *testing.T, token string, societyID uint, title string) uint {
	t.Helper()

	path := fmt.Sprintf("/api/societies/%d/outings", societyID)
	rec := s.request(t, http.MethodPost, path, token, gin.H{
		"title": title,
		"date":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	outing := body["outing"].(map[string]interface{})
	return uint(outing["id"].(float64))
}
