package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/hooks"
	"github.com/ngenohkevin/lmsdesk/internal/models"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

type ContentHandler struct {
	crud[models.Content, struct{}, models.ContentRequest, models.ContentRequest]
	contents *hooks.Contents
}

func NewContentHandler(contents *hooks.Contents) *ContentHandler {
	return &ContentHandler{
		crud:     crud[models.Content, struct{}, models.ContentRequest, models.ContentRequest]{resource: contents.Resource, label: "article"},
		contents: contents,
	}
}

// ListContents returns every article, drafts included.
func (h *ContentHandler) ListContents(c *gin.Context) {
	contents, err := h.contents.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list articles")
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Success: true,
		Data:    contents,
		Meta:    gin.H{"total": len(contents)},
	})
}

// UploadMedia stores an editor asset
// @Summary Upload editor media
// @Tags contents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image, video or PDF"
// @Success 201 {object} models.MediaUpload
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /api/v1/admin/media [post]
func (h *ContentHandler) UploadMedia(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "A file field named \"file\" is required", err.Error())
		return
	}
	if header.Size > services.MaxMediaSize {
		abortWithError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds the upload limit", gin.H{"maxBytes": services.MaxMediaSize})
		return
	}

	file, err := header.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Uploaded file could not be read", nil)
		return
	}
	defer file.Close()

	upload, err := h.contents.UploadMedia(c.Request.Context(), header.Filename, file)
	if err != nil {
		respondMutationError(c, err, "Failed to upload file")
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Success: true,
		Data:    upload,
		Message: "File uploaded successfully",
	})
}
