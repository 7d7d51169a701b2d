package server_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"exchangedesk/internal/auth"
	"exchangedesk/internal/prefs"
	"exchangedesk/internal/repository"
	"exchangedesk/internal/server"
	"exchangedesk/internal/taskview"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupEngine(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *auth.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	repos := server.Repositories{
		Users:        repository.NewUserRepository(gormDB),
		Tasks:        repository.NewTaskRepository(gormDB),
		Exchanges:    repository.NewExchangeRepository(gormDB),
		Participants: repository.NewParticipantRepository(gormDB),
		Preferences:  repository.NewPreferenceRepository(gormDB),
	}
	tokens := auth.NewManager("test-secret", time.Hour)
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

	engine, err := server.NewEngine(repos, tokens, prefs.NewHub(), taskview.FixedClock(now), zap.NewNop())
	require.NoError(t, err)
	return engine, mock, tokens
}

func TestNewEngine_Routes(t *testing.T) {
	engine, _, _ := setupEngine(t)

	routes := make(map[string]bool)
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}

	for _, want := range []string{
		"POST /register",
		"POST /login",
		"GET /me",
		"GET /tasks",
		"POST /tasks",
		"POST /tasks/bulk",
		"GET /tasks/calendar",
		"GET /tasks/timeline",
		"GET /tasks/:id",
		"PUT /tasks/:id",
		"DELETE /tasks/:id",
		"GET /exchanges",
		"POST /exchanges",
		"GET /exchanges/:id",
		"PUT /exchanges/:id",
		"GET /exchanges/:id/participants",
		"POST /exchanges/:id/participants",
		"PUT /exchanges/:id/participants/:pid",
		"DELETE /exchanges/:id/participants/:pid",
		"GET /preferences/:key",
		"PUT /preferences/:key",
		"GET /events/preferences",
		"GET /swagger/*any",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}
}

func TestNewEngine_RequiresToken(t *testing.T) {
	// Arrange
	engine, _, _ := setupEngine(t)
	req, _ := http.NewRequest("GET", "/tasks", nil)
	resp := httptest.NewRecorder()

	// Act
	engine.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestNewEngine_AuthenticatedPreference(t *testing.T) {
	// Arrange
	engine, mock, tokens := setupEngine(t)
	userID := uuid.New()
	token, err := tokens.GenerateToken(userID.String())
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "view_preferences" WHERE user_id = .* AND key = .*`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "key", "value"}).
			AddRow(userID.String(), "view:board:groupBy", `"status"`))

	req, _ := http.NewRequest("GET", "/preferences/view:board:groupBy", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	// Act
	engine.ServeHTTP(resp, req)

	// Assert
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"success":true,"key":"view:board:groupBy","value":"status"}`, resp.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
