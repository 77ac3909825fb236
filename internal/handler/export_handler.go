package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/xyz-school/portal-api/internal/service"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
	"github.com/xyz-school/portal-api/pkg/response"
)

// ExportHandler wires HTTP endpoints to the export service.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(200, result.ContentType, result.Body)
}

// EnrollmentRoster godoc
// @Summary Export the enrollment roster for a term
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param term query string true "Term"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /export/enrollments [get]
func (h *ExportHandler) EnrollmentRoster(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.service.EnrollmentRoster(c.Request.Context(), c.Query("term"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	writeExport(c, result)
}

// StudentAssignments godoc
// @Summary Export one student's assigned courses
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param studentId path int true "Enrolled student ID"
// @Param format query string false "csv or pdf" default(pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /export/students/{studentId}/courses [get]
func (h *ExportHandler) StudentAssignments(c *gin.Context) {
	studentID, ok := idParam(c, "studentId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "pdf"))

	result, err := h.service.StudentAssignments(c.Request.Context(), studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	writeExport(c, result)
}
