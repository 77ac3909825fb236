package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type mockAcademicYearRepo struct {
	years       map[int64]*models.AcademicYear
	nextID      int64
	listYears   []models.AcademicYear
	listCount   int
	listErr     error
	listFilter  models.AcademicYearFilter
	courseCount int
	activated   []int64
}

func (m *mockAcademicYearRepo) List(ctx context.Context, filter models.AcademicYearFilter) ([]models.AcademicYear, int, error) {
	m.listFilter = filter
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listYears, m.listCount, nil
}

func (m *mockAcademicYearRepo) FindByID(ctx context.Context, id int64) (*models.AcademicYear, error) {
	if year, ok := m.years[id]; ok {
		copy := *year
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicYearRepo) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	for _, year := range m.years {
		if year.Status == models.StatusActive {
			copy := *year
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAcademicYearRepo) ExistsByTerm(ctx context.Context, term string, excludeID int64) (bool, error) {
	for _, year := range m.years {
		if year.Term == term && year.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAcademicYearRepo) Create(ctx context.Context, year *models.AcademicYear) error {
	if m.years == nil {
		m.years = make(map[int64]*models.AcademicYear)
	}
	m.nextID++
	year.ID = m.nextID
	copy := *year
	m.years[year.ID] = &copy
	return nil
}

func (m *mockAcademicYearRepo) Update(ctx context.Context, year *models.AcademicYear) error {
	copy := *year
	m.years[year.ID] = &copy
	return nil
}

func (m *mockAcademicYearRepo) SetActive(ctx context.Context, id int64) error {
	m.activated = append(m.activated, id)
	for _, year := range m.years {
		if year.ID == id {
			year.Status = models.StatusActive
		} else {
			year.Status = models.StatusInactive
		}
	}
	return nil
}

func (m *mockAcademicYearRepo) Delete(ctx context.Context, id int64) error {
	delete(m.years, id)
	return nil
}

func (m *mockAcademicYearRepo) CountCourses(ctx context.Context, term string) (int, error) {
	return m.courseCount, nil
}

func TestAcademicYearServiceList(t *testing.T) {
	repo := &mockAcademicYearRepo{listYears: []models.AcademicYear{{ID: 1, Term: "2025-2026"}}, listCount: 1}
	svc := NewAcademicYearService(repo, nil, validator.New(), zap.NewNop())

	years, pagination, err := svc.List(context.Background(), models.AcademicYearFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, years, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.TotalPages)
}

func TestAcademicYearServiceListCapsPageSize(t *testing.T) {
	repo := &mockAcademicYearRepo{listYears: []models.AcademicYear{{ID: 1, Term: "2025-2026"}}, listCount: 150}
	svc := NewAcademicYearService(repo, nil, validator.New(), zap.NewNop())

	_, pagination, err := svc.List(context.Background(), models.AcademicYearFilter{Page: 1, PageSize: 200})
	require.NoError(t, err)

	// The repository and the metadata must see the same clamped size.
	assert.Equal(t, models.MaxPageSize, repo.listFilter.PageSize)
	assert.Equal(t, models.MaxPageSize, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalPages)
}

func TestAcademicYearServiceCreateActivates(t *testing.T) {
	repo := &mockAcademicYearRepo{years: make(map[int64]*models.AcademicYear)}
	svc := NewAcademicYearService(repo, nil, validator.New(), zap.NewNop())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	year, err := svc.Create(context.Background(), CreateAcademicYearRequest{
		Term:        "2025-2026",
		Description: "School Year 2025-2026",
		Status:      models.StatusActive,
		StartDate:   start,
		EndDate:     start.AddDate(1, 0, 0),
	})
	require.NoError(t, err)
	assert.NotZero(t, year.ID)
	assert.Contains(t, repo.activated, year.ID)
}

func TestAcademicYearServiceCreateDuplicateTerm(t *testing.T) {
	repo := &mockAcademicYearRepo{years: map[int64]*models.AcademicYear{
		1: {ID: 1, Term: "2025-2026", Status: models.StatusInactive},
	}}
	svc := NewAcademicYearService(repo, nil, validator.New(), zap.NewNop())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateAcademicYearRequest{
		Term:        "2025-2026",
		Description: "Duplicate",
		Status:      models.StatusInactive,
		StartDate:   start,
		EndDate:     start.AddDate(1, 0, 0),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearServiceCreateRejectsInvertedDates(t *testing.T) {
	svc := NewAcademicYearService(&mockAcademicYearRepo{}, nil, validator.New(), zap.NewNop())

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), CreateAcademicYearRequest{
		Term:        "2025-2026",
		Description: "Backwards",
		Status:      models.StatusInactive,
		StartDate:   start,
		EndDate:     start.AddDate(-1, 0, 0),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearServiceDeleteBlockedWhileActive(t *testing.T) {
	repo := &mockAcademicYearRepo{years: map[int64]*models.AcademicYear{
		1: {ID: 1, Term: "2025-2026", Status: models.StatusActive},
	}}
	svc := NewAcademicYearService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.years, int64(1))
}

func TestAcademicYearServiceDeleteBlockedByCourses(t *testing.T) {
	repo := &mockAcademicYearRepo{
		years:       map[int64]*models.AcademicYear{1: {ID: 1, Term: "2025-2026", Status: models.StatusInactive}},
		courseCount: 3,
	}
	svc := NewAcademicYearService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestAcademicYearServiceGetActiveNone(t *testing.T) {
	svc := NewAcademicYearService(&mockAcademicYearRepo{}, nil, validator.New(), zap.NewNop())

	_, err := svc.GetActive(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
