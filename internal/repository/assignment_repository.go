package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xyz-school/portal-api/internal/models"
)

const assignCourseColumns = "id, term, enrolled_student_id, course_id, faculty_full_name, title, description, created_at, updated_at"

// AssignmentRepository handles persistence for student/course assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository instantiates an assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByStudent returns every assignment held by one enrolled student.
func (r *AssignmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.AssignCourse, error) {
	query := fmt.Sprintf("SELECT %s FROM assign_courses WHERE enrolled_student_id = $1 ORDER BY title ASC, id ASC", assignCourseColumns)
	var assignments []models.AssignCourse
	if err := r.db.SelectContext(ctx, &assignments, query, studentID); err != nil {
		return nil, fmt.Errorf("list assignments by student: %w", err)
	}
	return assignments, nil
}

// ListUnassignedCourses returns the courses in a term the student does not
// hold an assignment for. The set difference is computed here rather than by
// the caller diffing full lists.
func (r *AssignmentRepository) ListUnassignedCourses(ctx context.Context, studentID int64, term string) ([]models.Course, error) {
	const query = `SELECT c.id, c.term, c.title, c.description, c.faculty_id, c.faculty_full_name, c.created_at, c.updated_at
FROM courses c
WHERE c.term = $2
  AND NOT EXISTS (
    SELECT 1 FROM assign_courses a
    WHERE a.course_id = c.id AND a.enrolled_student_id = $1 AND a.term = $2
  )
ORDER BY c.title ASC, c.id ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID, term); err != nil {
		return nil, fmt.Errorf("list unassigned courses: %w", err)
	}
	return courses, nil
}

// FindByID loads an assignment by identifier.
func (r *AssignmentRepository) FindByID(ctx context.Context, id int64) (*models.AssignCourse, error) {
	query := fmt.Sprintf("SELECT %s FROM assign_courses WHERE id = $1", assignCourseColumns)
	var assignment models.AssignCourse
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Exists checks whether the student already holds the course for the term.
func (r *AssignmentRepository) Exists(ctx context.Context, studentID, courseID int64, term string) (bool, error) {
	const query = `SELECT 1 FROM assign_courses WHERE enrolled_student_id = $1 AND course_id = $2 AND term = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, term); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check assignment uniqueness: %w", err)
	}
	return true, nil
}

// CreateBatch inserts the provided assignments inside one transaction. Any
// duplicate (student, course, term) aborts the whole batch.
func (r *AssignmentRepository) CreateBatch(ctx context.Context, assignments []models.AssignCourse) ([]models.AssignCourse, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin assign tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO assign_courses (term, enrolled_student_id, course_id, faculty_full_name, title, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	now := time.Now().UTC()
	created := make([]models.AssignCourse, 0, len(assignments))
	for _, assignment := range assignments {
		assignment.CreatedAt = now
		assignment.UpdatedAt = now
		if err = tx.GetContext(ctx, &assignment.ID, query, assignment.Term, assignment.EnrolledStudentID, assignment.CourseID, assignment.FacultyFullName, assignment.Title, assignment.Description, assignment.CreatedAt, assignment.UpdatedAt); err != nil {
			return nil, fmt.Errorf("create assignment: %w", err)
		}
		created = append(created, assignment)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit assign tx: %w", err)
	}
	return created, nil
}

// Delete removes one assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assign_courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return nil
}
