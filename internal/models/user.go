package models

import (
	"fmt"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleNormal     UserRole = "normal"
	RoleStudent    UserRole = "student"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superAdmin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleNormal, RoleStudent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusPending  AccountStatus = "pending"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

// AcademicYear is the study year of a student.
type AcademicYear string

const (
	YearFirst    AcademicYear = "1st Year"
	YearSecond   AcademicYear = "2nd Year"
	YearThird    AcademicYear = "3rd Year"
	YearFourth   AcademicYear = "4th Year"
	YearGraduate AcademicYear = "Graduate"
)

// Valid reports whether y is a known academic year.
func (y AcademicYear) Valid() bool {
	switch y {
	case YearFirst, YearSecond, YearThird, YearFourth, YearGraduate:
		return true
	}
	return false
}

// RoleProfile carries the role of a user together with the attributes only
// that role has. Build values with NewRoleProfile.
type RoleProfile interface {
	Role() UserRole
	isRoleProfile()
}

// StudentProfile is the profile of a student; every field is required.
type StudentProfile struct {
	PhoneNumber string
	Course      string
	Year        AcademicYear
}

// NormalProfile is the default profile.
type NormalProfile struct{}

// AdminProfile grants administrative access.
type AdminProfile struct{}

// SuperAdminProfile grants full access.
type SuperAdminProfile struct{}

func (StudentProfile) Role() UserRole    { return RoleStudent }
func (NormalProfile) Role() UserRole     { return RoleNormal }
func (AdminProfile) Role() UserRole      { return RoleAdmin }
func (SuperAdminProfile) Role() UserRole { return RoleSuperAdmin }

func (StudentProfile) isRoleProfile()    {}
func (NormalProfile) isRoleProfile()     {}
func (AdminProfile) isRoleProfile()      {}
func (SuperAdminProfile) isRoleProfile() {}

// NewRoleProfile validates the role specific attributes. An empty role means normal.
// Student attributes supplied for other roles are ignored.
func NewRoleProfile(role UserRole, phoneNumber, course, year string) (RoleProfile, error) {
	switch role {
	case "", RoleNormal:
		return NormalProfile{}, nil
	case RoleAdmin:
		return AdminProfile{}, nil
	case RoleSuperAdmin:
		return SuperAdminProfile{}, nil
	case RoleStudent:
		switch {
		case phoneNumber == "":
			return nil, fmt.Errorf("phoneNumber is required for students")
		case course == "":
			return nil, fmt.Errorf("course is required for students")
		case year == "":
			return nil, fmt.Errorf("year is required for students")
		case !AcademicYear(year).Valid():
			return nil, fmt.Errorf("year %q is not one of 1st Year, 2nd Year, 3rd Year, 4th Year, Graduate", year)
		}
		return StudentProfile{PhoneNumber: phoneNumber, Course: course, Year: AcademicYear(year)}, nil
	default:
		return nil, fmt.Errorf("role %q is not supported", role)
	}
}

// User represents an application user stored in the users table.
// Student columns are empty for every other role.
type User struct {
	ID            string        `db:"id"`
	FirstName     string        `db:"first_name"`
	LastName      string        `db:"last_name"`
	Email         string        `db:"email"`
	Address       string        `db:"address"`
	Role          UserRole      `db:"role"`
	Status        AccountStatus `db:"status"`
	PhoneNumber   string        `db:"phone_number"`
	Course        string        `db:"course"`
	Year          string        `db:"year"`
	PasswordHash  *string       `db:"password_hash"`
	PasswordSet   bool          `db:"password_set"`
	EmailVerified bool          `db:"email_verified"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

// ApplyProfile stores the profile on the user, clearing student columns for other roles.
func (u *User) ApplyProfile(p RoleProfile) {
	u.Role = p.Role()
	u.PhoneNumber, u.Course, u.Year = "", "", ""
	if sp, ok := p.(StudentProfile); ok {
		u.PhoneNumber = sp.PhoneNumber
		u.Course = sp.Course
		u.Year = string(sp.Year)
	}
}

// FullName joins first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
