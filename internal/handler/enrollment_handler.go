package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xyz-school/portal-api/internal/models"
	"github.com/xyz-school/portal-api/internal/service"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
	"github.com/xyz-school/portal-api/pkg/response"
)

// EnrollmentHandler wires HTTP endpoints to the enrollment service.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary List enrolled students
// @Tags Enrollment
// @Produce json
// @Param term query string false "Filter by term"
// @Param year_level query string false "Filter by year level"
// @Param search query string false "Search student names"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /enroll-student [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	filter := models.EnrolledStudentFilter{
		Term:      c.Query("term"),
		YearLevel: c.Query("year_level"),
		Search:    c.Query("search"),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "page_size", 10),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	students, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, pagination)
}

// ListByTerm godoc
// @Summary List enrolled students for one term
// @Tags Enrollment
// @Produce json
// @Param term path string true "Term"
// @Success 200 {object} response.Envelope
// @Router /enroll-student/term/{term} [get]
func (h *EnrollmentHandler) ListByTerm(c *gin.Context) {
	students, err := h.service.ListByTerm(c.Request.Context(), c.Param("term"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Get enrolled student
// @Tags Enrollment
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enroll-student/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment id"))
		return
	}

	student, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Enroll godoc
// @Summary Enroll students
// @Description Registers one or more students in a single transaction
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body []service.EnrollStudentRequest true "Students to enroll"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enroll-student [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var reqs []service.EnrollStudentRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	created, err := h.service.Enroll(c.Request.Context(), reqs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// Update godoc
// @Summary Update enrolled student
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enroll-student/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment id"))
		return
	}

	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid enrollment payload"))
		return
	}

	student, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete enrolled student
// @Description Removes the enrollment and its course assignments
// @Tags Enrollment
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enroll-student/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enrollment id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
