package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/xyz-school/portal-api/internal/models"
	appErrors "github.com/xyz-school/portal-api/pkg/errors"
	"github.com/xyz-school/portal-api/pkg/export"
)

// ExportFormat names a supported roster export encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportEnrollmentReader interface {
	ListByTerm(ctx context.Context, term string) ([]models.EnrolledStudent, error)
}

type exportAssignmentReader interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.AssignCourse, error)
}

// ExportResult carries rendered export bytes with serving metadata.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders enrollment rosters to downloadable files.
type ExportService struct {
	enrollments exportEnrollmentReader
	assignments exportAssignmentReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
	enabled     bool
}

// NewExportService creates a new export service instance.
func NewExportService(enrollments exportEnrollmentReader, assignments exportAssignmentReader, logger *zap.Logger, enabled bool) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		enrollments: enrollments,
		assignments: assignments,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
		enabled:     enabled,
	}
}

// EnrollmentRoster renders the enrollment list for one term.
func (s *ExportService) EnrollmentRoster(ctx context.Context, term string, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	if term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "term is required")
	}

	students, err := s.enrollments.ListByTerm(ctx, term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment roster")
	}

	roster := export.Roster{
		Columns: []export.Column{
			{Header: "Student ID", Weight: 1},
			{Header: "Lastname", Weight: 2},
			{Header: "Firstname", Weight: 2},
			{Header: "Middlename", Weight: 2},
			{Header: "Year Level", Weight: 1.5},
			{Header: "Term", Weight: 1.5},
		},
		Rows: make([][]string, 0, len(students)),
	}
	for _, student := range students {
		roster.Rows = append(roster.Rows, []string{
			strconv.FormatInt(student.StudentID, 10),
			student.Lastname,
			student.Firstname,
			student.Middlename,
			student.YearLevel,
			student.Term,
		})
	}

	title := fmt.Sprintf("Enrollment Roster - %s", term)
	filename := fmt.Sprintf("enrollment-roster-%s", term)
	return s.render(roster, title, filename, format)
}

// StudentAssignments renders one student's assigned courses.
func (s *ExportService) StudentAssignments(ctx context.Context, studentID int64, format ExportFormat) (*ExportResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	assignments, err := s.assignments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student assignments")
	}

	roster := export.Roster{
		Columns: []export.Column{
			{Header: "Course", Weight: 2},
			{Header: "Description", Weight: 3},
			{Header: "Faculty", Weight: 2},
			{Header: "Term", Weight: 1},
		},
		Rows: make([][]string, 0, len(assignments)),
	}
	for _, assignment := range assignments {
		roster.Rows = append(roster.Rows, []string{
			assignment.Title,
			assignment.Description,
			assignment.FacultyFullName,
			assignment.Term,
		})
	}

	title := fmt.Sprintf("Assigned Courses - Student %d", studentID)
	filename := fmt.Sprintf("student-%d-courses", studentID)
	return s.render(roster, title, filename, format)
}

func (s *ExportService) render(roster export.Roster, title, filename string, format ExportFormat) (*ExportResult, error) {
	switch format {
	case ExportFormatCSV:
		body, err := s.csv.Render(roster)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Filename: filename + ".csv", ContentType: "text/csv", Body: body}, nil
	case ExportFormatPDF:
		body, err := s.pdf.Render(roster, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Filename: filename + ".pdf", ContentType: "application/pdf", Body: body}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
