package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xyz-school/portal-api/internal/models"
)

func assignmentRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "term", "enrolled_student_id", "course_id", "faculty_full_name", "title", "description", "created_at", "updated_at"}).
		AddRow(int64(1), "2425", int64(5), int64(10), "Ada Lovelace", "Algebra", "Linear equations", now, now)
}

func TestAssignmentListByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, term, enrolled_student_id, course_id, faculty_full_name, title, description, created_at, updated_at FROM assign_courses WHERE enrolled_student_id = $1 ORDER BY title ASC, id ASC")).
		WithArgs(int64(5)).
		WillReturnRows(assignmentRows(now))

	assignments, err := repo.ListByStudent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Algebra", assignments[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentListUnassignedCourses(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "term", "title", "description", "faculty_id", "faculty_full_name", "created_at", "updated_at"}).
		AddRow(int64(11), "2425", "Physics", "Mechanics", int64(3), "Isaac Newton", now, now)
	mock.ExpectQuery("NOT EXISTS").
		WithArgs(int64(5), "2425").
		WillReturnRows(rows)

	courses, err := repo.ListUnassignedCourses(context.Background(), 5, "2425")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Physics", courses[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assign_courses WHERE enrolled_student_id = $1 AND course_id = $2 AND term = $3 LIMIT 1")).
		WithArgs(int64(5), int64(10), "2425").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), 5, 10, "2425")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentExistsFalse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM assign_courses WHERE enrolled_student_id = $1 AND course_id = $2 AND term = $3 LIMIT 1")).
		WithArgs(int64(5), int64(10), "2425").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.Exists(context.Background(), 5, 10, "2425")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateBatchCommitsOnce(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO assign_courses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO assign_courses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	created, err := repo.CreateBatch(context.Background(), []models.AssignCourse{
		{Term: "2425", EnrolledStudentID: 5, CourseID: 10, Title: "Algebra"},
		{Term: "2425", EnrolledStudentID: 5, CourseID: 11, Title: "Physics"},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(1), created[0].ID)
	assert.Equal(t, int64(2), created[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentCreateBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO assign_courses").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("INSERT INTO assign_courses").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.CreateBatch(context.Background(), []models.AssignCourse{
		{Term: "2425", EnrolledStudentID: 5, CourseID: 10, Title: "Algebra"},
		{Term: "2425", EnrolledStudentID: 5, CourseID: 10, Title: "Algebra"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assign_courses WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
