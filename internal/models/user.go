package models

import "time"

// UserRole represents the access-control claim carried on session tokens.
type UserRole string

const (
	RoleSuperAdmin UserRole = "superadmin"
	RolePrincipal  UserRole = "principal"
	RoleRegistrar  UserRole = "registrar"
	RoleTeacher    UserRole = "teacher"
	RoleAuthor     UserRole = "author"
)

// KnownRoles lists every role the application recognises.
var KnownRoles = []UserRole{RoleSuperAdmin, RolePrincipal, RoleRegistrar, RoleTeacher, RoleAuthor}

// Valid reports whether the role is one the application recognises.
func (r UserRole) Valid() bool {
	for _, known := range KnownRoles {
		if r == known {
			return true
		}
	}
	return false
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64        `db:"id" json:"id"`
	Firstname    string       `db:"firstname" json:"firstname"`
	Middlename   string       `db:"middlename" json:"middlename"`
	Lastname     string       `db:"lastname" json:"lastname"`
	Username     string       `db:"username" json:"username"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         UserRole     `db:"role" json:"role"`
	Status       RecordStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// FullName joins the name parts the way listings display them.
func (u *User) FullName() string {
	name := u.Firstname
	if u.Middlename != "" {
		name += " " + u.Middlename
	}
	if u.Lastname != "" {
		name += " " + u.Lastname
	}
	return name
}

// UserProfile is the projection served by the profile endpoints.
type UserProfile struct {
	ID         int64        `db:"id" json:"id"`
	Firstname  string       `db:"firstname" json:"firstname"`
	Middlename string       `db:"middlename" json:"middlename"`
	Lastname   string       `db:"lastname" json:"lastname"`
	Username   string       `db:"username" json:"username"`
	Email      string       `db:"email" json:"email"`
	Role       UserRole     `db:"role" json:"role"`
	Status     RecordStatus `db:"status" json:"status"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      UserRole
	Status    RecordStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
