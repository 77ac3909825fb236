package models

import "time"

// AcademicYear models one school-year configuration. The term string (e.g.
// "2425") is the foreign key other entities carry.
type AcademicYear struct {
	ID          int64        `db:"id" json:"id"`
	Term        string       `db:"term" json:"term"`
	Description string       `db:"description" json:"description"`
	Status      RecordStatus `db:"status" json:"status"`
	StartDate   time.Time    `db:"start_date" json:"start_date"`
	EndDate     time.Time    `db:"end_date" json:"end_date"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// AcademicYearFilter defines filters supported by the list endpoint.
type AcademicYearFilter struct {
	Status    RecordStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
