package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xyz-school/portal-api/internal/models"
)

const enrolledStudentColumns = "id, term, firstname, middlename, lastname, session_id, student_id, student_session_id, year_level, created_at, updated_at"

// EnrollmentRepository handles persistence for enrolled students.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository instantiates an enrollment repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrolled students matching the provided filters.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrolledStudentFilter) ([]models.EnrolledStudent, int, error) {
	base := "FROM enrolled_students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Term != "" {
		conditions = append(conditions, fmt.Sprintf("term = $%d", len(args)+1))
		args = append(args, filter.Term)
	}
	if filter.YearLevel != "" {
		conditions = append(conditions, fmt.Sprintf("year_level = $%d", len(args)+1))
		args = append(args, filter.YearLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(firstname ILIKE $%d OR middlename ILIKE $%d OR lastname ILIKE $%d OR year_level ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"lastname":   true,
		"firstname":  true,
		"year_level": true,
		"term":       true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "lastname"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", enrolledStudentColumns, base, sortBy, order, size, offset)

	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrolled students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrolled students: %w", err)
	}

	return students, total, nil
}

// ListByTerm returns every enrollment for one term ordered by student name.
func (r *EnrollmentRepository) ListByTerm(ctx context.Context, term string) ([]models.EnrolledStudent, error) {
	query := fmt.Sprintf("SELECT %s FROM enrolled_students WHERE term = $1 ORDER BY lastname ASC, firstname ASC, id ASC", enrolledStudentColumns)
	var students []models.EnrolledStudent
	if err := r.db.SelectContext(ctx, &students, query, term); err != nil {
		return nil, fmt.Errorf("list enrolled students by term: %w", err)
	}
	return students, nil
}

// FindByID loads an enrolled student by identifier.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.EnrolledStudent, error) {
	query := fmt.Sprintf("SELECT %s FROM enrolled_students WHERE id = $1", enrolledStudentColumns)
	var student models.EnrolledStudent
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// CreateBatch inserts the provided students inside one transaction.
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, students []models.EnrolledStudent) ([]models.EnrolledStudent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enroll tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO enrolled_students (term, firstname, middlename, lastname, session_id, student_id, student_session_id, year_level, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`

	now := time.Now().UTC()
	created := make([]models.EnrolledStudent, 0, len(students))
	for _, student := range students {
		student.CreatedAt = now
		student.UpdatedAt = now
		if err = tx.GetContext(ctx, &student.ID, query, student.Term, student.Firstname, student.Middlename, student.Lastname, student.SessionID, student.StudentID, student.StudentSessionID, student.YearLevel, student.CreatedAt, student.UpdatedAt); err != nil {
			return nil, fmt.Errorf("create enrolled student: %w", err)
		}
		created = append(created, student)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enroll tx: %w", err)
	}
	return created, nil
}

// Update modifies an existing enrollment.
func (r *EnrollmentRepository) Update(ctx context.Context, student *models.EnrolledStudent) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrolled_students SET term = :term, firstname = :firstname, middlename = :middlename, lastname = :lastname, session_id = :session_id, student_id = :student_id, student_session_id = :student_session_id, year_level = :year_level, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update enrolled student: %w", err)
	}
	return nil
}

// Delete removes an enrollment and its assignments.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete enrollment tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM assign_courses WHERE enrolled_student_id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment assignments: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM enrolled_students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete enrolled student: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete enrollment tx: %w", err)
	}
	return nil
}
