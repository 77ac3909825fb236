package models

import "time"

// AssignCourse links one enrolled student to one course for one term. Course
// title, description and faculty name are denormalized into the row, an
// intentional read optimization carried over from the original workflow.
// (enrolled_student_id, course_id, term) is unique.
type AssignCourse struct {
	ID                int64     `db:"id" json:"id"`
	Term              string    `db:"term" json:"term"`
	EnrolledStudentID int64     `db:"enrolled_student_id" json:"enrolled_student_id"`
	CourseID          int64     `db:"course_id" json:"course_id"`
	FacultyFullName   string    `db:"faculty_full_name" json:"faculty_full_name"`
	Title             string    `db:"title" json:"title"`
	Description       string    `db:"description" json:"description"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultTerm is the payload of the default-term lookup: the term of the
// academic year currently flagged active, or empty when none is.
type DefaultTerm struct {
	Term string `json:"term"`
}
