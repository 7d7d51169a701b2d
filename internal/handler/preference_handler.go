package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"exchangedesk/internal/prefs"
	"exchangedesk/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxPreferenceSize bounds a stored preference value.
const maxPreferenceSize = 64 << 10

type PreferenceHandler struct {
	repo   repository.PreferenceRepositoryInterface
	hub    *prefs.Hub
	logger *zap.Logger
}

func NewPreferenceHandler(repo repository.PreferenceRepositoryInterface, hub *prefs.Hub, logger *zap.Logger) *PreferenceHandler {
	return &PreferenceHandler{repo: repo, hub: hub, logger: logger}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	key := c.Param("key")
	if !prefs.ValidKey(key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preference key"})
		return
	}

	value, err := h.repo.Get(c.Request.Context(), userID, key)
	if err != nil {
		if errors.Is(err, prefs.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Preference not found"})
			return
		}
		h.logger.Error("get preference", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "key": key, "value": json.RawMessage(value)})
}

// Put stores the request body, which must be a JSON value, and notifies
// the user's other open views.
func (h *PreferenceHandler) Put(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	key := c.Param("key")
	if !prefs.ValidKey(key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preference key"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPreferenceSize+1))
	if err != nil || len(body) > maxPreferenceSize || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Preference value must be JSON of at most 64KiB"})
		return
	}

	store := prefs.NewStore(h.repo.ForUser(userID), userID.String(), h.hub, h.logger)
	if err := prefs.Save(c.Request.Context(), store, key, json.RawMessage(body)); err != nil {
		h.logger.Error("save preference", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

// Events streams the user's preference changes as server-sent events until
// the client disconnects.
func (h *PreferenceHandler) Events(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	changes, cancel := h.hub.Subscribe(userID.String())
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case change, ok := <-changes:
			if !ok {
				return false
			}
			c.SSEvent("preference", gin.H{"key": change.Key, "value": json.RawMessage(change.Value)})
			return true
		}
	})
}
