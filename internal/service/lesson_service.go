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

type lessonRepository interface {
	ListByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error)
	FindByID(ctx context.Context, id int64) (*models.Lesson, error)
	NextPosition(ctx context.Context, courseID int64) (int, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id int64) error
}

// CreateLessonRequest describes the payload for adding lessons to a course.
type CreateLessonRequest struct {
	CourseID int64  `json:"course_id" validate:"required,gt=0"`
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// UpdateLessonRequest updates mutable fields on a lesson.
type UpdateLessonRequest struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Position int    `json:"position" validate:"required,gt=0"`
}

// LessonService orchestrates course-lesson authoring.
type LessonService struct {
	repo      lessonRepository
	courses   assignmentCourseReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService creates a new lesson service instance.
func NewLessonService(repo lessonRepository, courses assignmentCourseReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, courses: courses, cache: cache, validator: validate, logger: logger}
}

// ListByCourse returns a course's lessons in position order.
func (s *LessonService) ListByCourse(ctx context.Context, courseID int64) ([]models.Lesson, error) {
	if courseID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course id is required")
	}

	key := fmt.Sprintf("lessons:course:%d", courseID)
	var cached []models.Lesson
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	lessons, err := s.repo.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}

	_ = s.cache.Set(ctx, key, lessons, 0)
	return lessons, nil
}

// Get returns a lesson by ID.
func (s *LessonService) Get(ctx context.Context, id int64) (*models.Lesson, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson id is required")
	}

	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	return lesson, nil
}

// Create appends a lesson at the end of the course's sequence.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	position, err := s.repo.NextPosition(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute lesson position")
	}

	lesson := &models.Lesson{
		CourseID: req.CourseID,
		Title:    req.Title,
		Content:  req.Content,
		Position: position,
	}

	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}

	_ = s.cache.Invalidate(ctx, "lessons:*")
	return lesson, nil
}

// Update modifies a lesson's content or ordering.
func (s *LessonService) Update(ctx context.Context, id int64, req UpdateLessonRequest) (*models.Lesson, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lesson id is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	lesson.Title = req.Title
	lesson.Content = req.Content
	lesson.Position = req.Position

	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}

	_ = s.cache.Invalidate(ctx, "lessons:*")
	return lesson, nil
}

// Delete removes a lesson from its course.
func (s *LessonService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "lesson id is required")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}

	_ = s.cache.Invalidate(ctx, "lessons:*")
	return nil
}
