package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments map[int64]*models.AssignCourse
	nextID      int64
	courses     []models.Course
	batchErr    error
}

func (m *mockAssignmentRepo) ListByStudent(ctx context.Context, studentID int64) ([]models.AssignCourse, error) {
	var out []models.AssignCourse
	for _, a := range m.assignments {
		if a.EnrolledStudentID == studentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) ListUnassignedCourses(ctx context.Context, studentID int64, term string) ([]models.Course, error) {
	var out []models.Course
	for _, course := range m.courses {
		if course.Term != term {
			continue
		}
		assigned := false
		for _, a := range m.assignments {
			if a.EnrolledStudentID == studentID && a.CourseID == course.ID && a.Term == term {
				assigned = true
				break
			}
		}
		if !assigned {
			out = append(out, course)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id int64) (*models.AssignCourse, error) {
	if a, ok := m.assignments[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAssignmentRepo) Exists(ctx context.Context, studentID, courseID int64, term string) (bool, error) {
	for _, a := range m.assignments {
		if a.EnrolledStudentID == studentID && a.CourseID == courseID && a.Term == term {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAssignmentRepo) CreateBatch(ctx context.Context, assignments []models.AssignCourse) ([]models.AssignCourse, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	if m.assignments == nil {
		m.assignments = make(map[int64]*models.AssignCourse)
	}
	created := make([]models.AssignCourse, 0, len(assignments))
	for _, a := range assignments {
		m.nextID++
		a.ID = m.nextID
		copy := a
		m.assignments[a.ID] = &copy
		created = append(created, a)
	}
	return created, nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id int64) error {
	delete(m.assignments, id)
	return nil
}

type mockCourseReader struct {
	courses map[int64]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		copy := *course
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentReader struct {
	students map[int64]*models.EnrolledStudent
}

func (m *mockStudentReader) FindByID(ctx context.Context, id int64) (*models.EnrolledStudent, error) {
	if student, ok := m.students[id]; ok {
		copy := *student
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

type mockActiveTermReader struct {
	year *models.AcademicYear
}

func (m *mockActiveTermReader) FindActive(ctx context.Context) (*models.AcademicYear, error) {
	if m.year == nil {
		return nil, sql.ErrNoRows
	}
	copy := *m.year
	return &copy, nil
}

func newAssignmentFixture() (*AssignmentService, *mockAssignmentRepo) {
	algebra := &models.Course{ID: 10, Term: "2425", Title: "Algebra", Description: "Linear equations", FacultyFullName: "Ada Lovelace"}
	physics := &models.Course{ID: 11, Term: "2425", Title: "Physics", Description: "Mechanics", FacultyFullName: "Isaac Newton"}
	repo := &mockAssignmentRepo{
		assignments: make(map[int64]*models.AssignCourse),
		courses:     []models.Course{*algebra, *physics},
	}
	courses := &mockCourseReader{courses: map[int64]*models.Course{10: algebra, 11: physics}}
	students := &mockStudentReader{students: map[int64]*models.EnrolledStudent{
		5: {ID: 5, Term: "2425", Firstname: "Jane", Lastname: "Cruz", YearLevel: "Grade 11"},
	}}
	years := &mockActiveTermReader{year: &models.AcademicYear{ID: 1, Term: "2425", Status: models.StatusActive}}
	svc := NewAssignmentService(repo, courses, students, years, nil, validator.New(), zap.NewNop())
	return svc, repo
}

func TestAssignmentServiceAssignDenormalizesCourseFields(t *testing.T) {
	svc, repo := newAssignmentFixture()

	created, err := svc.Assign(context.Background(), AssignCoursesRequest{
		Term:              "2425",
		EnrolledStudentID: 5,
		CourseIDs:         []int64{10, 11},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "Algebra", created[0].Title)
	assert.Equal(t, "Ada Lovelace", created[0].FacultyFullName)
	assert.Len(t, repo.assignments, 2)
}

func TestAssignmentServiceAssignMapsUniqueViolationToConflict(t *testing.T) {
	svc, repo := newAssignmentFixture()
	repo.batchErr = &pq.Error{Code: "23505", Constraint: "assign_courses_student_course_term_key"}

	_, err := svc.Assign(context.Background(), AssignCoursesRequest{
		Term:              "2425",
		EnrolledStudentID: 5,
		CourseIDs:         []int64{10},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAssignRejectsDuplicate(t *testing.T) {
	svc, _ := newAssignmentFixture()

	_, err := svc.Assign(context.Background(), AssignCoursesRequest{
		Term:              "2425",
		EnrolledStudentID: 5,
		CourseIDs:         []int64{10},
	})
	require.NoError(t, err)

	_, err = svc.Assign(context.Background(), AssignCoursesRequest{
		Term:              "2425",
		EnrolledStudentID: 5,
		CourseIDs:         []int64{10},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAssignRejectsTermMismatch(t *testing.T) {
	svc, _ := newAssignmentFixture()

	_, err := svc.Assign(context.Background(), AssignCoursesRequest{
		Term:              "2526",
		EnrolledStudentID: 5,
		CourseIDs:         []int64{10},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceUnassignedShrinksAfterAssign(t *testing.T) {
	svc, _ := newAssignmentFixture()

	before, err := svc.ListUnassignedCourses(context.Background(), 5, "2425")
	require.NoError(t, err)
	assert.Len(t, before, 2)

	_, err = svc.Assign(context.Background(), AssignCoursesRequest{
		Term:              "2425",
		EnrolledStudentID: 5,
		CourseIDs:         []int64{10},
	})
	require.NoError(t, err)

	after, err := svc.ListUnassignedCourses(context.Background(), 5, "2425")
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, int64(11), after[0].ID)
}

func TestAssignmentServiceDefaultTerm(t *testing.T) {
	svc, _ := newAssignmentFixture()

	term, err := svc.DefaultTerm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2425", term.Term)
}

func TestAssignmentServiceDefaultTermEmptyWithoutActiveYear(t *testing.T) {
	repo := &mockAssignmentRepo{}
	svc := NewAssignmentService(repo, &mockCourseReader{}, &mockStudentReader{}, &mockActiveTermReader{}, nil, validator.New(), zap.NewNop())

	term, err := svc.DefaultTerm(context.Background())
	require.NoError(t, err)
	assert.Empty(t, term.Term)
}

func TestAssignmentServiceDeleteMissing(t *testing.T) {
	svc, _ := newAssignmentFixture()

	err := svc.Delete(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
