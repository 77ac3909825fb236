package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type academicYearRepository interface {
	List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error)
	FindByID(ctx context.Context, id int64) (*models.AcademicYear, error)
	FindActive(ctx context.Context) (*models.AcademicYear, error)
	ExistsByTerm(ctx context.Context, term string, excludeID int64) (bool, error)
	Create(ctx context.Context, year *models.AcademicYear) error
	Update(ctx context.Context, year *models.AcademicYear) error
	SetActive(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	CountCourses(ctx context.Context, term string) (int, error)
}

// CreateAcademicYearRequest describes the payload for creating academic years.
type CreateAcademicYearRequest struct {
	Term        string              `json:"term" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Status      models.RecordStatus `json:"status" validate:"required,oneof=active inactive"`
	StartDate   time.Time           `json:"start_date" validate:"required"`
	EndDate     time.Time           `json:"end_date" validate:"required"`
}

// UpdateAcademicYearRequest updates mutable fields on an academic year.
type UpdateAcademicYearRequest struct {
	Term        string              `json:"term" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Status      models.RecordStatus `json:"status" validate:"required,oneof=active inactive"`
	StartDate   time.Time           `json:"start_date" validate:"required"`
	EndDate     time.Time           `json:"end_date" validate:"required"`
}

type academicYearListPayload struct {
	Years []models.AcademicYear `json:"years"`
	Total int                   `json:"total"`
}

// AcademicYearService orchestrates academic year workflows.
type AcademicYearService struct {
	repo      academicYearRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcademicYearService creates a new academic year service instance.
func NewAcademicYearService(repo academicYearRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AcademicYearService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcademicYearService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated academic years, served from cache when possible.
func (s *AcademicYearService) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	key := fmt.Sprintf("academic_years:list:%s:%s:%d:%d:%s:%s", filter.Status, filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var payload academicYearListPayload
	if hit, _ := s.cache.Get(ctx, key, &payload); hit {
		return payload.Years, models.NewPagination(filter.Page, filter.PageSize, payload.Total), nil
	}

	years, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list academic years")
	}

	_ = s.cache.Set(ctx, key, academicYearListPayload{Years: years, Total: total}, 0)

	return years, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an academic year by ID.
func (s *AcademicYearService) Get(ctx context.Context, id int64) (*models.AcademicYear, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic year id is required")
	}

	key := fmt.Sprintf("academic_years:id:%d", id)
	var cached models.AcademicYear
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}

	_ = s.cache.Set(ctx, key, year, 0)
	return year, nil
}

// GetActive returns the academic year currently flagged active.
func (s *AcademicYearService) GetActive(ctx context.Context) (*models.AcademicYear, error) {
	year, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active academic year")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active academic year")
	}
	return year, nil
}

// Create adds a new academic year, keeping at most one active.
func (s *AcademicYearService) Create(ctx context.Context, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	exists, err := s.repo.ExistsByTerm(ctx, req.Term, 0)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "academic year already exists for term")
	}

	year := &models.AcademicYear{
		Term:        req.Term,
		Description: req.Description,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}

	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create academic year")
	}

	if req.Status == models.StatusActive {
		if err := s.repo.SetActive(ctx, year.ID); err != nil {
			s.logger.Error("failed to activate academic year after create", zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate academic year")
		}
	}

	_ = s.cache.Invalidate(ctx, "academic_years:*")
	return year, nil
}

// Update modifies an academic year record.
func (s *AcademicYearService) Update(ctx context.Context, id int64, req UpdateAcademicYearRequest) (*models.AcademicYear, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic year id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid academic year payload")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be before end_date")
	}

	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}

	exists, err := s.repo.ExistsByTerm(ctx, req.Term, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check term uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "academic year already exists for term")
	}

	year.Term = req.Term
	year.Description = req.Description
	year.Status = req.Status
	year.StartDate = req.StartDate
	year.EndDate = req.EndDate

	if err := s.repo.Update(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update academic year")
	}

	if req.Status == models.StatusActive {
		if err := s.repo.SetActive(ctx, year.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate academic year")
		}
	}

	_ = s.cache.Invalidate(ctx, "academic_years:*")
	return year, nil
}

// Delete removes an academic year when inactive and unreferenced.
func (s *AcademicYearService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "academic year id is required")
	}

	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load academic year")
	}

	if year.Status == models.StatusActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot delete the active academic year")
	}

	count, err := s.repo.CountCourses(ctx, year.Term)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check academic year dependencies")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "academic year has courses associated")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete academic year")
	}

	_ = s.cache.Invalidate(ctx, "academic_years:*")
	return nil
}
