package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
)

// crud serves detail and write endpoints for one hooks resource. label is the
// singular name used in messages.
type crud[T, F, C, U any] struct {
	resource *hooks.Resource[T, F, C, U]
	label    string
}

func (h crud[T, F, C, U]) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.resource.Detail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to load "+h.label)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: item})
}

func (h crud[T, F, C, U]) Create(c *gin.Context) {
	var req C
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.resource.Create(c.Request.Context(), req)
	if err != nil {
		respondMutationError(c, err, "Failed to create "+h.label)
		return
	}

	notifySuccess(c, capitalize(h.label)+" created")
	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    item,
		Message: capitalize(h.label) + " created successfully",
	})
}

func (h crud[T, F, C, U]) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req U
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.resource.Update(c.Request.Context(), id, req)
	if err != nil {
		respondMutationError(c, err, "Failed to update "+h.label)
		return
	}

	notifySuccess(c, capitalize(h.label)+" updated")
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    item,
		Message: capitalize(h.label) + " updated successfully",
	})
}

func (h crud[T, F, C, U]) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.resource.Remove(c.Request.Context(), id); err != nil {
		respondMutationError(c, err, "Failed to delete "+h.label)
		return
	}

	notifySuccess(c, capitalize(h.label)+" deleted")
	c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: capitalize(h.label) + " deleted successfully",
	})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
