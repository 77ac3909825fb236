package models

import "time"

// Course belongs to one academic year (by term) and one faculty member. The
// faculty full name is denormalized for read-optimized listings.
type Course struct {
	ID              int64     `db:"id" json:"id"`
	Term            string    `db:"term" json:"term"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	FacultyID       int64     `db:"faculty_id" json:"faculty_id"`
	FacultyFullName string    `db:"faculty_full_name" json:"faculty_full_name"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter defines filters supported by course list endpoints.
type CourseFilter struct {
	Term      string
	FacultyID int64
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// FacultyMember is the teacher projection used by the course form dropdown.
type FacultyMember struct {
	UserID   int64  `db:"user_id" json:"user_id"`
	FullName string `db:"full_name" json:"full_name"`
}
