package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"exchangedesk/internal/exchange"
	"exchangedesk/internal/model"
	"exchangedesk/internal/permission"
	"exchangedesk/internal/repository"
	"exchangedesk/internal/taskview"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ExchangeHandler struct {
	exchanges repository.ExchangeRepositoryInterface
	tasks     repository.TaskRepositoryInterface
	access    repository.AccessChecker
	clock     taskview.Clock
	logger    *zap.Logger
}

func NewExchangeHandler(
	exchanges repository.ExchangeRepositoryInterface,
	tasks repository.TaskRepositoryInterface,
	access repository.AccessChecker,
	clock taskview.Clock,
	logger *zap.Logger,
) *ExchangeHandler {
	if clock == nil {
		clock = taskview.SystemClock
	}
	return &ExchangeHandler{exchanges: exchanges, tasks: tasks, access: access, clock: clock, logger: logger}
}

type PropertyRequest struct {
	Kind     model.PropertyKind `json:"kind" binding:"required,oneof=relinquished replacement"`
	Address  string             `json:"address"`
	Value    int64              `json:"value_cents" binding:"min=0"`
	ClosedAt *time.Time         `json:"closed_at"`
}

type ExchangeRequest struct {
	Name                   string               `json:"name" binding:"required,max=200"`
	Status                 model.ExchangeStatus `json:"status" binding:"omitempty,oneof=PENDING ACTIVE IDENTIFICATION CLOSING COMPLETED CANCELLED"`
	StartDate              *time.Time           `json:"start_date"`
	IdentificationDeadline *time.Time           `json:"identification_deadline"`
	CompletionDeadline     *time.Time           `json:"completion_deadline"`
	RelinquishedValue      int64                `json:"relinquished_value_cents" binding:"min=0"`
	ReplacementValue       int64                `json:"replacement_value_cents" binding:"min=0"`
	Properties             []PropertyRequest    `json:"properties" binding:"dive"`
}

func (r ExchangeRequest) apply(e *model.Exchange) {
	e.Name = strings.TrimSpace(r.Name)
	if r.Status != "" {
		e.Status = r.Status
	}
	e.StartDate = r.StartDate
	e.IdentificationDeadline = r.IdentificationDeadline
	e.CompletionDeadline = r.CompletionDeadline
	e.RelinquishedValue = r.RelinquishedValue
	e.ReplacementValue = r.ReplacementValue
	exchange.FillDeadlines(e)
}

func (h *ExchangeHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ex := &model.Exchange{ID: uuid.New(), OwnerID: userID, Status: model.ExchangePending}
	req.apply(ex)
	for _, p := range req.Properties {
		ex.Properties = append(ex.Properties, model.ExchangeProperty{
			ID:         uuid.New(),
			ExchangeID: ex.ID,
			Kind:       p.Kind,
			Address:    p.Address,
			Value:      p.Value,
			ClosedAt:   p.ClosedAt,
		})
	}

	if err := h.exchanges.Create(c.Request.Context(), ex); err != nil {
		h.logger.Error("create exchange", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create exchange"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "exchange": ex})
}

// List answers with a bare array of the exchanges the caller owns or
// participates in.
func (h *ExchangeHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	exchanges, err := h.exchanges.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list exchanges", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve exchanges"})
		return
	}
	if exchanges == nil {
		exchanges = []model.Exchange{}
	}
	for i := range exchanges {
		exchange.FillDeadlines(&exchanges[i])
	}

	c.JSON(http.StatusOK, exchanges)
}

// GetByID returns the exchange with its properties, participants and
// deadline progress.
func (h *ExchangeHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ex, ok := h.load(c, userID, permission.View)
	if !ok {
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), repository.TaskFilter{UserID: userID, ExchangeID: &ex.ID})
	if err != nil {
		h.logger.Error("list exchange tasks", zap.Stringer("exchange", ex.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	progress := exchange.Compute(*ex, tasks, h.clock.Now())
	exchange.FillDeadlines(ex)
	c.JSON(http.StatusOK, gin.H{"success": true, "exchange": ex, "progress": progress})
}

func (h *ExchangeHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ex, ok := h.load(c, userID, permission.Manage)
	if !ok {
		return
	}

	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.apply(ex)
	ex.UpdatedAt = h.clock.Now()
	if err := h.exchanges.Update(c.Request.Context(), ex); err != nil {
		if errors.Is(err, repository.ErrExchangeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Exchange not found"})
			return
		}
		h.logger.Error("update exchange", zap.Stringer("exchange", ex.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update exchange"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "exchange": ex})
}

func (h *ExchangeHandler) load(c *gin.Context, userID uuid.UUID, action permission.Action) (*model.Exchange, bool) {
	exchangeID, ok := uuidParam(c, "id", "exchange")
	if !ok {
		return nil, false
	}

	allowed, err := h.access.CheckAccess(c.Request.Context(), exchangeID, userID, action)
	if err != nil {
		h.logger.Error("check exchange access", zap.Stringer("exchange", exchangeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check access"})
		return nil, false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't have permission to " + string(action) + " this exchange"})
		return nil, false
	}

	ex, err := h.exchanges.GetByID(c.Request.Context(), exchangeID)
	if err != nil {
		if errors.Is(err, repository.ErrExchangeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Exchange not found"})
		} else {
			h.logger.Error("get exchange", zap.Stringer("exchange", exchangeID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve exchange"})
		}
		return nil, false
	}
	return ex, true
}
