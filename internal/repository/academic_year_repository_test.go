package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyz-school/portal-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func academicYearRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term", "description", "status", "start_date", "end_date", "created_at", "updated_at"}).
		AddRow(int64(1), "2425", "School Year 2024-2025", "active", now, now.AddDate(1, 0, 0), now, now)
}

func TestAcademicYearList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term, description, status, start_date, end_date, created_at, updated_at FROM academic_years WHERE 1=1 ORDER BY start_date DESC, id ASC LIMIT 10 OFFSET 0")).
		WillReturnRows(academicYearRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	years, total, err := repo.List(context.Background(), models.AcademicYearFilter{})
	require.NoError(t, err)
	assert.Len(t, years, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearListCapsPageSize(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_years WHERE 1=1 ORDER BY start_date DESC, id ASC LIMIT 100 OFFSET 100")).
		WillReturnRows(academicYearRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(150))

	_, total, err := repo.List(context.Background(), models.AcademicYearFilter{Page: 2, PageSize: 200})
	require.NoError(t, err)
	assert.Equal(t, 150, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearListFiltersByStatusAndSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM academic_years WHERE 1=1 AND status = $1 AND (term ILIKE $2 OR description ILIKE $2) ORDER BY term ASC, id ASC LIMIT 20 OFFSET 20")).
		WithArgs("active", "%2024%").
		WillReturnRows(academicYearRows(now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years WHERE 1=1 AND status = $1")).
		WithArgs("active", "%2024%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	years, total, err := repo.List(context.Background(), models.AcademicYearFilter{
		Status:    models.StatusActive,
		Search:    "2024",
		Page:      2,
		PageSize:  20,
		SortBy:    "term",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Len(t, years, 1)
	assert.Equal(t, 21, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearFindActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term, description, status, start_date, end_date, created_at, updated_at FROM academic_years WHERE status = 'active' LIMIT 1")).
		WillReturnRows(academicYearRows(now))

	year, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2425", year.Term)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearExistsByTerm(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM academic_years WHERE term = $1 LIMIT 1")).
		WithArgs("2425").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByTerm(context.Background(), "2425", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearExistsByTermNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM academic_years WHERE term = $1 AND id <> $2 LIMIT 1")).
		WithArgs("2425", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByTerm(context.Background(), "2425", 3)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectQuery("INSERT INTO academic_years").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	year := &models.AcademicYear{Term: "2526", Description: "School Year 2025-2026", Status: models.StatusInactive}
	err := repo.Create(context.Background(), year)
	require.NoError(t, err)
	assert.Equal(t, int64(5), year.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicYearSetActive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAcademicYearRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE academic_years SET status = 'inactive'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET status = 'active'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.SetActive(context.Background(), 2)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
