package handler

import (
	"errors"
	"net/http"
	"strings"

	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
	"exchangedesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ParticipantHandler struct {
	participants repository.ParticipantRepositoryInterface
	users        repository.UserRepositoryInterface
	logger       *zap.Logger
}

func NewParticipantHandler(
	participants repository.ParticipantRepositoryInterface,
	users repository.UserRepositoryInterface,
	logger *zap.Logger,
) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, users: users, logger: logger}
}

// AddParticipantRequest assigns a role. Permissions default to the role's
// unless given explicitly.
type AddParticipantRequest struct {
	Name        string                `json:"name"`
	Email       string                `json:"email" binding:"required,email"`
	Role        model.ParticipantRole `json:"role" binding:"required,participantrole"`
	Permissions *model.Permissions    `json:"permissions"`
}

// UpdateParticipantRequest changes a participant. A new role re-derives
// the permissions unless Permissions is also given.
type UpdateParticipantRequest struct {
	Name        *string               `json:"name"`
	Role        model.ParticipantRole `json:"role" binding:"participantrole"`
	Permissions *model.Permissions    `json:"permissions"`
}

func (h *ParticipantHandler) authorize(c *gin.Context, action permission.Action) (uuid.UUID, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return uuid.Nil, false
	}
	exchangeID, ok := uuidParam(c, "id", "exchange")
	if !ok {
		return uuid.Nil, false
	}

	allowed, err := h.participants.CheckAccess(c.Request.Context(), exchangeID, userID, action)
	if err != nil {
		h.logger.Error("check exchange access", zap.Stringer("exchange", exchangeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return uuid.Nil, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to " + string(action) + " this exchange"})
		return uuid.Nil, false
	}
	return exchangeID, true
}

// List answers {success, participants}.
func (h *ParticipantHandler) List(c *gin.Context) {
	exchangeID, ok := h.authorize(c, permission.View)
	if !ok {
		return
	}

	participants, err := h.participants.ListByExchange(c.Request.Context(), exchangeID)
	if err != nil {
		h.logger.Error("list participants", zap.Stringer("exchange", exchangeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve participants"})
		return
	}
	if participants == nil {
		participants = []model.Participant{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "participants": participants})
}

func (h *ParticipantHandler) Add(c *gin.Context) {
	exchangeID, ok := h.authorize(c, permission.Manage)
	if !ok {
		return
	}

	var req AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p := &model.Participant{
		ExchangeID: exchangeID,
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
	}
	if err := permission.Assign(p, req.Role, req.Permissions); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	// Link the participant to an account when one exists for the email.
	user, err := h.users.FindByEmail(c.Request.Context(), p.Email)
	if err != nil {
		h.logger.Error("find user by email", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to find user"})
		return
	}
	if user != nil {
		p.UserID = &user.ID
		if p.Name == "" {
			p.Name = user.Name
		}
	}

	if err := h.participants.Upsert(c.Request.Context(), p); err != nil {
		h.logger.Error("add participant", zap.Stringer("exchange", exchangeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add participant"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "participant": p})
}

func (h *ParticipantHandler) Update(c *gin.Context) {
	exchangeID, ok := h.authorize(c, permission.Manage)
	if !ok {
		return
	}
	participantID, ok := uuidParam(c, "pid", "participant")
	if !ok {
		return
	}

	var req UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	p, err := h.participants.GetByID(c.Request.Context(), exchangeID, participantID)
	if err != nil {
		h.participantError(c, "get participant", err)
		return
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	switch {
	case req.Role != "":
		if err := permission.Assign(p, req.Role, req.Permissions); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
	case req.Permissions != nil:
		p.Permissions = *req.Permissions
	}

	if err := h.participants.Update(c.Request.Context(), p); err != nil {
		h.participantError(c, "update participant", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "participant": p})
}

func (h *ParticipantHandler) Remove(c *gin.Context) {
	exchangeID, ok := h.authorize(c, permission.Manage)
	if !ok {
		return
	}
	participantID, ok := uuidParam(c, "pid", "participant")
	if !ok {
		return
	}

	if err := h.participants.Remove(c.Request.Context(), exchangeID, participantID); err != nil {
		h.participantError(c, "remove participant", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Participant removed successfully"})
}

func (h *ParticipantHandler) participantError(c *gin.Context, op string, err error) {
	if errors.Is(err, repository.ErrParticipantNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Participant not found"})
		return
	}
	h.logger.Error(op, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
}
