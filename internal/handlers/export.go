package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ngenohkevin/lmsdesk/internal/middleware"
	"github.com/ngenohkevin/lmsdesk/internal/services"
)

type ExportHandler struct {
	exportService services.ExportServiceInterface
	logger        *slog.Logger
}

func NewExportHandler(exportService services.ExportServiceInterface, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// Export downloads a full listing
// @Summary Export a listing
// @Tags export
// @Produce application/octet-stream
// @Param resource path string true "books, users or loans"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/export/{resource} [get]
func (h *ExportHandler) Export(c *gin.Context) {
	resource := c.Param("resource")
	format := c.DefaultQuery("format", services.FormatCSV)

	file, err := h.exportService.Export(c.Request.Context(), resource, format)
	if err != nil {
		respondError(c, err, "Failed to export "+resource)
		return
	}

	h.logger.Info("Listing exported",
		"resource", resource,
		"format", format,
		"records", file.RecordCount,
		"username", middleware.GetUsername(c),
	)

	c.Header("Content-Disposition", "attachment; filename=\""+file.FileName+"\"")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Record-Count", strconv.Itoa(file.RecordCount))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
