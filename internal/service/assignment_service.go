package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type assignmentRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.AssignCourse, error)
	ListUnassignedCourses(ctx context.Context, studentID int64, term string) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.AssignCourse, error)
	Exists(ctx context.Context, studentID, courseID int64, term string) (bool, error)
	CreateBatch(ctx context.Context, assignments []models.AssignCourse) ([]models.AssignCourse, error)
	Delete(ctx context.Context, id int64) error
}

type assignmentCourseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
}

type assignmentStudentReader interface {
	FindByID(ctx context.Context, id int64) (*models.EnrolledStudent, error)
}

type activeTermReader interface {
	FindActive(ctx context.Context) (*models.AcademicYear, error)
}

// AssignCoursesRequest assigns a set of courses to one enrolled student.
type AssignCoursesRequest struct {
	Term              string  `json:"term" validate:"required"`
	EnrolledStudentID int64   `json:"enrolled_student_id" validate:"required,gt=0"`
	CourseIDs         []int64 `json:"course_ids" validate:"required,min=1,dive,gt=0"`
}

// AssignmentService orchestrates the course-assignment workflow.
type AssignmentService struct {
	repo      assignmentRepository
	courses   assignmentCourseReader
	students  assignmentStudentReader
	years     activeTermReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService creates a new assignment service instance.
func NewAssignmentService(repo assignmentRepository, courses assignmentCourseReader, students assignmentStudentReader, years activeTermReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		repo:      repo,
		courses:   courses,
		students:  students,
		years:     years,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// ListByStudent returns every assignment one enrolled student holds.
func (s *AssignmentService) ListByStudent(ctx context.Context, studentID int64) ([]models.AssignCourse, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	key := fmt.Sprintf("assignments:student:%d", studentID)
	var cached []models.AssignCourse
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	assignments, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}

	_ = s.cache.Set(ctx, key, assignments, 0)
	return assignments, nil
}

// ListUnassignedCourses returns the courses in a term the student may still be
// assigned. With no assignments yet this is the full course list for the term.
func (s *AssignmentService) ListUnassignedCourses(ctx context.Context, studentID int64, term string) ([]models.Course, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term is required")
	}

	courses, err := s.repo.ListUnassignedCourses(ctx, studentID, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unassigned courses")
	}
	return courses, nil
}

// DefaultTerm returns the term of the active academic year, or an empty term
// when no year is active.
func (s *AssignmentService) DefaultTerm(ctx context.Context) (*models.DefaultTerm, error) {
	year, err := s.years.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.DefaultTerm{}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active academic year")
	}
	return &models.DefaultTerm{Term: year.Term}, nil
}

// Assign creates assignments for every requested course in one transaction,
// denormalizing course title, description and faculty name into each row.
func (s *AssignmentService) Assign(ctx context.Context, req AssignCoursesRequest) ([]models.AssignCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	student, err := s.students.FindByID(ctx, req.EnrolledStudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrolled student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled student")
	}
	if student.Term != req.Term {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in the requested term")
	}

	assignments := make([]models.AssignCourse, 0, len(req.CourseIDs))
	seen := make(map[int64]bool, len(req.CourseIDs))
	for _, courseID := range req.CourseIDs {
		if seen[courseID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate course in assignment payload")
		}
		seen[courseID] = true

		course, err := s.courses.FindByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("course %d not found", courseID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if course.Term != req.Term {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("course %d does not belong to term %s", courseID, req.Term))
		}

		exists, err := s.repo.Exists(ctx, req.EnrolledStudentID, courseID, req.Term)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment uniqueness")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student already assigned to course %d for term %s", courseID, req.Term))
		}

		assignments = append(assignments, models.AssignCourse{
			Term:              req.Term,
			EnrolledStudentID: req.EnrolledStudentID,
			CourseID:          course.ID,
			FacultyFullName:   course.FacultyFullName,
			Title:             course.Title,
			Description:       course.Description,
		})
	}

	created, err := s.repo.CreateBatch(ctx, assignments)
	if err != nil {
		// Concurrent assigns can slip past the pre-insert check; the unique
		// index is the arbiter and its violation is still a conflict.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("student already assigned to a requested course for term %s", req.Term))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign courses")
	}

	_ = s.cache.Invalidate(ctx, "assignments:*")
	return created, nil
}

// Delete removes one assignment.
func (s *AssignmentService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "assignment id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}

	_ = s.cache.Invalidate(ctx, "assignments:*")
	return nil
}
