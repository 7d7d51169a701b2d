package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"exchangedesk/internal/handler"
	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
	"exchangedesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupParticipantTest(t *testing.T, userID uuid.UUID) (*gin.Engine, *MockParticipantRepository, *MockUserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, handler.RegisterValidators())

	participants := new(MockParticipantRepository)
	users := new(MockUserRepository)
	h := handler.NewParticipantHandler(participants, users, zap.NewNop())

	r := gin.New()
	g := r.Group("/exchanges/:id", authenticatedAs(userID))
	g.GET("/participants", h.List)
	g.POST("/participants", h.Add)
	g.PUT("/participants/:pid", h.Update)
	g.DELETE("/participants/:pid", h.Remove)
	return r, participants, users
}

type participantResponse struct {
	Success     bool              `json:"success"`
	Participant model.Participant `json:"participant"`
}

func TestParticipantList_Envelope(t *testing.T) {
	// Arrange
	userID, exchangeID := uuid.New(), uuid.New()
	router, participants, _ := setupParticipantTest(t, userID)
	participants.On("CheckAccess", mock.Anything, exchangeID, userID, permission.View).Return(true, nil)
	participants.On("ListByExchange", mock.Anything, exchangeID).Return(nil, nil)

	// Act
	resp := serve(router, "GET", "/exchanges/"+exchangeID.String()+"/participants", nil)

	// Assert
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"success":true,"participants":[]}`, resp.Body.String())
}

func TestParticipantAdd_DerivesRolePermissions(t *testing.T) {
	// Arrange
	userID, exchangeID := uuid.New(), uuid.New()
	router, participants, users := setupParticipantTest(t, userID)
	linked := &model.User{ID: uuid.New(), Email: "cpa@example.com", Name: "Dana Reyes"}
	participants.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Manage).Return(true, nil)
	users.On("FindByEmail", mock.Anything, "cpa@example.com").Return(linked, nil)
	participants.On("Upsert", mock.Anything, mock.AnythingOfType("*model.Participant")).Return(nil)

	// Act
	resp := serve(router, "POST", "/exchanges/"+exchangeID.String()+"/participants",
		`{"email":" CPA@example.com ","role":"cpa"}`)

	// Assert
	require.Equal(t, http.StatusCreated, resp.Code)
	var body participantResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	want, err := permission.Defaults(model.RoleCPA)
	require.NoError(t, err)
	assert.Equal(t, want, body.Participant.Permissions)
	assert.Equal(t, "Dana Reyes", body.Participant.Name)
	assert.Equal(t, exchangeID, body.Participant.ExchangeID)
	require.NotNil(t, body.Participant.UserID)
	assert.Equal(t, linked.ID, *body.Participant.UserID)
}

func TestParticipantAdd_UnknownRole(t *testing.T) {
	// Arrange
	userID, exchangeID := uuid.New(), uuid.New()
	router, participants, _ := setupParticipantTest(t, userID)
	participants.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Manage).Return(true, nil)

	// Act
	resp := serve(router, "POST", "/exchanges/"+exchangeID.String()+"/participants",
		`{"email":"x@example.com","role":"broker"}`)

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	participants.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestParticipantAdd_RequiresManage(t *testing.T) {
	// Arrange
	userID, exchangeID := uuid.New(), uuid.New()
	router, participants, _ := setupParticipantTest(t, userID)
	participants.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Manage).Return(false, nil)

	// Act
	resp := serve(router, "POST", "/exchanges/"+exchangeID.String()+"/participants",
		`{"email":"x@example.com","role":"viewer"}`)

	// Assert
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestParticipantUpdate_RoleChange(t *testing.T) {
	viewer, err := permission.Defaults(model.RoleViewer)
	require.NoError(t, err)
	attorney, err := permission.Defaults(model.RoleAttorney)
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want model.Permissions
	}{
		{"role re-derives permissions", `{"role":"viewer"}`, viewer},
		{"explicit overrides win", `{"role":"viewer","permissions":{"can_view":true,"can_upload":true}}`, model.Permissions{CanView: true, CanUpload: true}},
		{"permissions only keep role", `{"permissions":{"can_view":true}}`, model.Permissions{CanView: true}},
		{"name only keeps permissions", `{"name":"Lee"}`, attorney},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			userID, exchangeID := uuid.New(), uuid.New()
			router, participants, _ := setupParticipantTest(t, userID)
			existing := &model.Participant{ID: uuid.New(), ExchangeID: exchangeID, Role: model.RoleAttorney, Permissions: attorney}
			participants.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Manage).Return(true, nil)
			participants.On("GetByID", mock.Anything, exchangeID, existing.ID).Return(existing, nil)
			participants.On("Update", mock.Anything, existing).Return(nil)

			// Act
			resp := serve(router, "PUT", "/exchanges/"+exchangeID.String()+"/participants/"+existing.ID.String(), tt.body)

			// Assert
			require.Equal(t, http.StatusOK, resp.Code)
			var body participantResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Participant.Permissions)
		})
	}
}

func TestParticipantRemove_NotFound(t *testing.T) {
	// Arrange
	userID, exchangeID, pid := uuid.New(), uuid.New(), uuid.New()
	router, participants, _ := setupParticipantTest(t, userID)
	participants.On("CheckAccess", mock.Anything, exchangeID, userID, permission.Manage).Return(true, nil)
	participants.On("Remove", mock.Anything, exchangeID, pid).Return(repository.ErrParticipantNotFound)

	// Act
	resp := serve(router, "DELETE", "/exchanges/"+exchangeID.String()+"/participants/"+pid.String(), nil)

	// Assert
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
