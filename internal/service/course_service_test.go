package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type mockCourseRepo struct {
	courses         map[int64]*models.Course
	nextID          int64
	faculty         []models.FacultyMember
	assignmentCount int
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, course := range m.courses {
		if filter.Term != "" && course.Term != filter.Term {
			continue
		}
		if filter.FacultyID > 0 && course.FacultyID != filter.FacultyID {
			continue
		}
		out = append(out, *course)
	}
	return out, len(out), nil
}

func (m *mockCourseRepo) ListByFaculty(ctx context.Context, term string, facultyID int64) ([]models.Course, error) {
	var out []models.Course
	for _, course := range m.courses {
		if course.Term == term && course.FacultyID == facultyID {
			out = append(out, *course)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		copy := *course
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[int64]*models.Course)
	}
	m.nextID++
	course.ID = m.nextID
	copy := *course
	m.courses[course.ID] = &copy
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	copy := *course
	m.courses[course.ID] = &copy
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id int64) error {
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) ListFaculty(ctx context.Context) ([]models.FacultyMember, error) {
	return m.faculty, nil
}

func (m *mockCourseRepo) CountAssignments(ctx context.Context, id int64) (int, error) {
	return m.assignmentCount, nil
}

type mockFacultyReader struct {
	users map[int64]*models.User
}

func (m *mockFacultyReader) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func newCourseFixture() (*CourseService, *mockCourseRepo) {
	repo := &mockCourseRepo{courses: make(map[int64]*models.Course)}
	users := &mockFacultyReader{users: map[int64]*models.User{
		3: {ID: 3, Firstname: "Ada", Lastname: "Lovelace", Role: models.RoleTeacher, Status: models.StatusActive},
		4: {ID: 4, Firstname: "Rear", Lastname: "Admiral", Role: models.RoleRegistrar, Status: models.StatusActive},
	}}
	return NewCourseService(repo, users, nil, validator.New(), zap.NewNop()), repo
}

func TestCourseServiceCreateResolvesFacultyName(t *testing.T) {
	svc, repo := newCourseFixture()

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Term:        "2425",
		Title:       "Algebra",
		Description: "Linear equations",
		FacultyID:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", course.FacultyFullName)
	assert.Contains(t, repo.courses, course.ID)
}

func TestCourseServiceCreateRejectsNonTeacher(t *testing.T) {
	svc, _ := newCourseFixture()

	_, err := svc.Create(context.Background(), CreateCourseRequest{
		Term:        "2425",
		Title:       "Algebra",
		Description: "Linear equations",
		FacultyID:   4,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceUpdateRefreshesFacultyName(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.courses[1] = &models.Course{ID: 1, Term: "2425", Title: "Algebra", Description: "Old", FacultyID: 3, FacultyFullName: "Ada Lovelace"}
	repo.nextID = 1

	course, err := svc.Update(context.Background(), 1, UpdateCourseRequest{
		Term:        "2425",
		Title:       "Algebra II",
		Description: "Quadratics",
		FacultyID:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Algebra II", course.Title)
	assert.Equal(t, "Ada Lovelace", course.FacultyFullName)
}

func TestCourseServiceDeleteBlockedByAssignments(t *testing.T) {
	svc, repo := newCourseFixture()
	repo.courses[1] = &models.Course{ID: 1, Term: "2425", Title: "Algebra"}
	repo.assignmentCount = 2

	err := svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, repo.courses, int64(1))
}

func TestCourseServiceListByFacultyRequiresTerm(t *testing.T) {
	svc, _ := newCourseFixture()

	_, err := svc.ListByFaculty(context.Background(), "", 3)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
