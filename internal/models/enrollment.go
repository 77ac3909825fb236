package models

import "time"

// EnrolledStudent captures a student's registration for one term.
type EnrolledStudent struct {
	ID               int64     `db:"id" json:"id"`
	Term             string    `db:"term" json:"term"`
	Firstname        string    `db:"firstname" json:"firstname"`
	Middlename       string    `db:"middlename" json:"middlename"`
	Lastname         string    `db:"lastname" json:"lastname"`
	SessionID        int64     `db:"session_id" json:"session_id"`
	StudentID        int64     `db:"student_id" json:"student_id"`
	StudentSessionID int64     `db:"student_session_id" json:"student_session_id"`
	YearLevel        string    `db:"year_level" json:"year_level"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// EnrolledStudentFilter provides filters for listing enrollments.
type EnrolledStudentFilter struct {
	Term      string
	YearLevel string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
