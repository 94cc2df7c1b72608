package constants

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleSchoolAdmin = "SCHOOL_ADMIN"
	RoleTeacher     = "TEACHER"
	RoleParent      = "PARENT"
)

// PlatformSchoolID is the reserved tenant every SUPER_ADMIN belongs to.
var PlatformSchoolID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Role error templates
const (
	ErrOnlyAttendanceWriters = "Only teachers or school admins can access %s."
	ErrOnlyAttendanceReaders = "Only teachers, school admins or super admins can access %s."
	ErrOnlyParents           = "Only parents can access %s."
)

func RoleErrorAttendanceWriter(feature string) string {
	return fmt.Sprintf(ErrOnlyAttendanceWriters, feature)
}

func RoleErrorAttendanceReader(feature string) string {
	return fmt.Sprintf(ErrOnlyAttendanceReaders, feature)
}

func RoleErrorParent(feature string) string {
	return fmt.Sprintf(ErrOnlyParents, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleSuperAdmin,
		RoleSchoolAdmin,
		RoleTeacher,
		RoleParent,
	}

	AttendanceWriters = []string{
		RoleTeacher,
		RoleSchoolAdmin,
	}

	SectionReaders = []string{
		RoleTeacher,
		RoleSchoolAdmin,
		RoleSuperAdmin,
	}

	StudentReaders = []string{
		RoleTeacher,
		RoleSchoolAdmin,
		RoleSuperAdmin,
		RoleParent,
	}

	ParentOnly = []string{
		RoleParent,
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
