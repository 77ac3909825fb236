package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
)

type stubEnrollmentReader struct {
	students []models.EnrolledStudent
}

func (s *stubEnrollmentReader) ListByTerm(ctx context.Context, term string) ([]models.EnrolledStudent, error) {
	return s.students, nil
}

type stubAssignmentReader struct {
	assignments []models.AssignCourse
}

func (s *stubAssignmentReader) ListByStudent(ctx context.Context, studentID int64) ([]models.AssignCourse, error) {
	return s.assignments, nil
}

func TestExportServiceEnrollmentRosterCSV(t *testing.T) {
	enrollments := &stubEnrollmentReader{students: []models.EnrolledStudent{
		{StudentID: 100, Firstname: "Jane", Lastname: "Cruz", YearLevel: "Grade 11", Term: "2425"},
	}}
	svc := NewExportService(enrollments, &stubAssignmentReader{}, zap.NewNop(), true)

	result, err := svc.EnrollmentRoster(context.Background(), "2425", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "enrollment-roster-2425.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Body)
	assert.True(t, strings.HasPrefix(body, "Student ID,Lastname,Firstname"))
	assert.Contains(t, body, "100,Cruz,Jane")
}

func TestExportServiceStudentAssignmentsPDF(t *testing.T) {
	assignments := &stubAssignmentReader{assignments: []models.AssignCourse{
		{Title: "Algebra", Description: "Linear equations", FacultyFullName: "Ada Lovelace", Term: "2425"},
	}}
	svc := NewExportService(&stubEnrollmentReader{}, assignments, zap.NewNop(), true)

	result, err := svc.StudentAssignments(context.Background(), 5, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "student-5-courses.pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Body), "%PDF"))
}

func TestExportServiceDisabled(t *testing.T) {
	svc := NewExportService(&stubEnrollmentReader{}, &stubAssignmentReader{}, zap.NewNop(), false)

	_, err := svc.EnrollmentRoster(context.Background(), "2425", ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := NewExportService(&stubEnrollmentReader{}, &stubAssignmentReader{}, zap.NewNop(), true)

	_, err := svc.EnrollmentRoster(context.Background(), "2425", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
