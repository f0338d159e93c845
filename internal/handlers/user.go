package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/models"
)

type UserHandler struct {
	crud[models.User, string, models.CreateUserRequest, models.UpdateUserRequest]
	users *hooks.Users
}

func NewUserHandler(users *hooks.Users) *UserHandler {
	return &UserHandler{
		crud:  crud[models.User, string, models.CreateUserRequest, models.UpdateUserRequest]{resource: users.Resource, label: "user"},
		users: users,
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	sess, ok := requireSession(c)
	if !ok {
		return
	}

	filters := applyUserPatch(sess.Users, patchFromQuery(c))

	page, err := h.users.List(c.Request.Context(), filters.Page, filters.Size, filters.Search)
	if err != nil {
		respondError(c, err, "Failed to list users")
		return
	}

	meta := pageMeta(page)
	meta["filters"] = filters
	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    page.Content,
		Meta:    meta,
	})
}

func (h *UserHandler) CountUsers(c *gin.Context) {
	count, err := h.users.Count(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to count users")
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    gin.H{"count": count},
	})
}

// ToggleActive flips a user between active and inactive.
func (h *UserHandler) ToggleActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.users.ToggleActive(c.Request.Context(), id)
	if err != nil {
		respondMutationError(c, err, "Failed to change user status")
		return
	}

	message := "User deactivated"
	if user.Active {
		message = "User activated"
	}
	notifySuccess(c, message)
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    user,
		Message: message,
	})
}
