package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/state"
)

// PreferenceHandler exposes the session's theme and notification slot.
type PreferenceHandler struct{}

func NewPreferenceHandler() *PreferenceHandler {
	return &PreferenceHandler{}
}

type SetThemeRequest struct {
	Mode state.ThemeMode `json:"mode" binding:"required"`
}

func (h *PreferenceHandler) GetTheme(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    gin.H{"mode": sess.Theme.Mode()},
	})
}

func (h *PreferenceHandler) ToggleTheme(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    gin.H{"mode": sess.Theme.Toggle()},
	})
}

func (h *PreferenceHandler) SetTheme(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	var req SetThemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if !req.Mode.Valid() {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "mode must be one of [light dark]", nil)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    gin.H{"mode": sess.Theme.Set(req.Mode)},
	})
}

// GetNotification returns the current notification; data is null when none
// is shown.
func (h *PreferenceHandler) GetNotification(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    sess.Notifications.Current(),
	})
}

func (h *PreferenceHandler) HideNotification(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	sess.Notifications.Hide()
	c.Status(http.StatusNoContent)
}
