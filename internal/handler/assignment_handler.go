package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xyz-school/portal-api/internal/service"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
	"github.com/xyz-school/portal-api/pkg/response"
)

// AssignmentHandler wires HTTP endpoints to the assignment service.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Assign godoc
// @Summary Assign courses to a student
// @Description Creates one assignment per requested course in a single transaction
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.AssignCoursesRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assign-course [post]
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req service.AssignCoursesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	created, err := h.service.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}

// ListUnassigned godoc
// @Summary List courses not yet assigned to a student
// @Description The server computes the set difference; with no assignments the
// @Description full course list for the term comes back.
// @Tags Assignments
// @Produce json
// @Param student_id query int true "Enrolled student ID"
// @Param term query string true "Term"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assign-course [get]
func (h *AssignmentHandler) ListUnassigned(c *gin.Context) {
	studentID, err := strconv.ParseInt(c.Query("student_id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}

	courses, err := h.service.ListUnassignedCourses(c.Request.Context(), studentID, c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, courses, nil)
}

// ListByStudent godoc
// @Summary List a student's assigned courses
// @Tags Assignments
// @Produce json
// @Param studentId path int true "Enrolled student ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assign-course/enrolled/{studentId} [get]
func (h *AssignmentHandler) ListByStudent(c *gin.Context) {
	studentID, ok := idParam(c, "studentId")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}

	assignments, err := h.service.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignments, nil)
}

// DefaultTerm godoc
// @Summary Get the default term
// @Description Returns the active academic year's term; empty when none is active
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assign-course/default-term [get]
func (h *AssignmentHandler) DefaultTerm(c *gin.Context) {
	term, err := h.service.DefaultTerm(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, term, nil)
}

// Delete godoc
// @Summary Remove an assignment
// @Tags Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assign-course/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
