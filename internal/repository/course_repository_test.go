package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term", "title", "description", "faculty_id", "faculty_full_name", "created_at", "updated_at"}).
		AddRow(int64(1), "2425", "Algebra", "Linear equations", int64(3), "Ada Lovelace", now, now).
		AddRow(int64(2), "2425", "Geometry", "Shapes and proofs", int64(3), "Ada Lovelace", now, now)
}

func TestCourseListByFaculty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term, title, description, faculty_id, faculty_full_name, created_at, updated_at FROM courses WHERE term = $1 AND faculty_id = $2 ORDER BY title ASC, id ASC")).
		WithArgs("2425", int64(3)).
		WillReturnRows(courseRows(now))

	courses, err := repo.ListByFaculty(context.Background(), "2425", 3)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algebra", courses[0].Title)
	assert.Equal(t, "Geometry", courses[1].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}
