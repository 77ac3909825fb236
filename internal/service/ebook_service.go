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

type ebookRepository interface {
	List(ctx context.Context, filter models.EbookFilter) ([]models.Ebook, int, error)
	FindByID(ctx context.Context, id int64) (*models.Ebook, error)
	Create(ctx context.Context, ebook *models.Ebook) error
	Update(ctx context.Context, ebook *models.Ebook) error
	Delete(ctx context.Context, id int64) error
}

// SaveEbookRequest describes the payload for creating or updating ebooks.
type SaveEbookRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	CoverImage  string `json:"cover_image" validate:"omitempty,url"`
}

type ebookListPayload struct {
	Ebooks []models.Ebook `json:"ebooks"`
	Total  int            `json:"total"`
}

// EbookService orchestrates the e-book catalog.
type EbookService struct {
	repo      ebookRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEbookService creates a new ebook service instance.
func NewEbookService(repo ebookRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EbookService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EbookService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns paginated ebooks, served from cache when possible.
func (s *EbookService) List(ctx context.Context, filter models.EbookFilter) ([]models.Ebook, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	key := fmt.Sprintf("ebooks:list:%s:%d:%d:%s:%s", filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var payload ebookListPayload
	if hit, _ := s.cache.Get(ctx, key, &payload); hit {
		return payload.Ebooks, models.NewPagination(filter.Page, filter.PageSize, payload.Total), nil
	}

	ebooks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ebooks")
	}

	_ = s.cache.Set(ctx, key, ebookListPayload{Ebooks: ebooks, Total: total}, 0)

	return ebooks, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an ebook by ID.
func (s *EbookService) Get(ctx context.Context, id int64) (*models.Ebook, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ebook id is required")
	}

	ebook, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ebook not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ebook")
	}
	return ebook, nil
}

// Create adds a new ebook to the catalog.
func (s *EbookService) Create(ctx context.Context, req SaveEbookRequest) (*models.Ebook, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ebook payload")
	}

	ebook := &models.Ebook{
		Title:       req.Title,
		Description: req.Description,
		CoverImage:  req.CoverImage,
	}

	if err := s.repo.Create(ctx, ebook); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create ebook")
	}

	_ = s.cache.Invalidate(ctx, "ebooks:*")
	return ebook, nil
}

// Update modifies an ebook record.
func (s *EbookService) Update(ctx context.Context, id int64, req SaveEbookRequest) (*models.Ebook, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ebook id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ebook payload")
	}

	ebook, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "ebook not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ebook")
	}

	ebook.Title = req.Title
	ebook.Description = req.Description
	ebook.CoverImage = req.CoverImage

	if err := s.repo.Update(ctx, ebook); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ebook")
	}

	_ = s.cache.Invalidate(ctx, "ebooks:*")
	return ebook, nil
}

// Delete removes an ebook from the catalog.
func (s *EbookService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "ebook id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "ebook not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ebook")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete ebook")
	}

	_ = s.cache.Invalidate(ctx, "ebooks:*")
	return nil
}
