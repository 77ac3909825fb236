package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrolledStudentFilter) ([]models.EnrolledStudent, int, error)
	ListByTerm(ctx context.Context, term string) ([]models.EnrolledStudent, error)
	FindByID(ctx context.Context, id int64) (*models.EnrolledStudent, error)
	CreateBatch(ctx context.Context, students []models.EnrolledStudent) ([]models.EnrolledStudent, error)
	Update(ctx context.Context, student *models.EnrolledStudent) error
	Delete(ctx context.Context, id int64) error
}

// EnrollStudentRequest is one student row in an enrollment submission.
type EnrollStudentRequest struct {
	Term             string `json:"term" validate:"required"`
	Firstname        string `json:"firstname" validate:"required"`
	Middlename       string `json:"middlename"`
	Lastname         string `json:"lastname" validate:"required"`
	SessionID        int64  `json:"session_id" validate:"required,gt=0"`
	StudentID        int64  `json:"student_id" validate:"required,gt=0"`
	StudentSessionID int64  `json:"student_session_id" validate:"required,gt=0"`
	YearLevel        string `json:"year_level" validate:"required"`
}

// UpdateEnrollmentRequest updates mutable fields on an enrollment.
type UpdateEnrollmentRequest struct {
	Term       string `json:"term" validate:"required"`
	Firstname  string `json:"firstname" validate:"required"`
	Middlename string `json:"middlename"`
	Lastname   string `json:"lastname" validate:"required"`
	YearLevel  string `json:"year_level" validate:"required"`
}

type enrollmentListPayload struct {
	Students []models.EnrolledStudent `json:"students"`
	Total    int                      `json:"total"`
}

// EnrollmentService orchestrates enrolled-student workflows.
type EnrollmentService struct {
	repo      enrollmentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService creates a new enrollment service instance.
func NewEnrollmentService(repo enrollmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated enrollments, served from cache when possible.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrolledStudentFilter) ([]models.EnrolledStudent, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	key := fmt.Sprintf("enrollments:list:%s:%s:%s:%d:%d:%s:%s", filter.Term, filter.YearLevel, filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var payload enrollmentListPayload
	if hit, _ := s.cache.Get(ctx, key, &payload); hit {
		return payload.Students, models.NewPagination(filter.Page, filter.PageSize, payload.Total), nil
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students")
	}

	_ = s.cache.Set(ctx, key, enrollmentListPayload{Students: students, Total: total}, 0)

	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// ListByTerm returns every enrollment for the term without pagination.
func (s *EnrollmentService) ListByTerm(ctx context.Context, term string) ([]models.EnrolledStudent, error) {
	if term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term is required")
	}

	students, err := s.repo.ListByTerm(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled students for term")
	}
	return students, nil
}

// Get returns an enrollment by ID.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.EnrolledStudent, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrolled student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled student")
	}
	return student, nil
}

// Enroll registers one or more students inside a single transaction. Either
// every row lands or none do.
func (s *EnrollmentService) Enroll(ctx context.Context, reqs []EnrollStudentRequest) ([]models.EnrolledStudent, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one student is required")
	}

	students := make([]models.EnrolledStudent, 0, len(reqs))
	for i, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid student at index %d", i))
		}
		students = append(students, models.EnrolledStudent{
			Term:             req.Term,
			Firstname:        req.Firstname,
			Middlename:       req.Middlename,
			Lastname:         req.Lastname,
			SessionID:        req.SessionID,
			StudentID:        req.StudentID,
			StudentSessionID: req.StudentSessionID,
			YearLevel:        req.YearLevel,
		})
	}

	created, err := s.repo.CreateBatch(ctx, students)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll students")
	}

	_ = s.cache.Invalidate(ctx, "enrollments:*")
	return created, nil
}

// Update modifies an enrollment record.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req UpdateEnrollmentRequest) (*models.EnrolledStudent, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrolled student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled student")
	}

	student.Term = req.Term
	student.Firstname = req.Firstname
	student.Middlename = req.Middlename
	student.Lastname = req.Lastname
	student.YearLevel = req.YearLevel

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrolled student")
	}

	_ = s.cache.Invalidate(ctx, "enrollments:*")
	return student, nil
}

// Delete removes an enrollment along with its course assignments.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "enrolled student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled student")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrolled student")
	}

	_ = s.cache.Invalidate(ctx, "enrollments:*")
	_ = s.cache.Invalidate(ctx, "assignments:*")
	return nil
}
