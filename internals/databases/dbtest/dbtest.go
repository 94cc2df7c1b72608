// Package dbtest opens throwaway sqlite databases with the full schema for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	database "schoolku_backend/internals/databases"
	academicsModel "schoolku_backend/internals/features/school/academics/model"
	userModel "schoolku_backend/internals/features/users/user/model"
)

var seq atomic.Int64

// Open returns a migrated in-memory database private to t. A single
// connection serializes writers so concurrent tests see real unique-index races.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, seq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate(t testing.TB, db *gorm.DB, v any) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("seed %T: %v", v, err)
	}
}

func School(t testing.TB, db *gorm.DB, code string) academicsModel.SchoolModel {
	t.Helper()
	s := academicsModel.SchoolModel{SchoolCode: code, SchoolName: "School " + code}
	mustCreate(t, db, &s)
	return s
}

// Section creates a class with one section in it.
func Section(t testing.TB, db *gorm.DB, schoolID uuid.UUID, className, sectionName string) academicsModel.SectionModel {
	t.Helper()
	c := academicsModel.ClassModel{ClassSchoolID: schoolID, ClassName: className}
	mustCreate(t, db, &c)
	s := academicsModel.SectionModel{SectionSchoolID: schoolID, SectionClassID: c.ClassID, SectionName: sectionName}
	mustCreate(t, db, &s)
	return s
}

func Student(t testing.TB, db *gorm.DB, sec academicsModel.SectionModel, name string, rollNo int) academicsModel.StudentModel {
	t.Helper()
	s := academicsModel.StudentModel{
		StudentSchoolID:  sec.SectionSchoolID,
		StudentSectionID: sec.SectionID,
		StudentClassID:   sec.SectionClassID,
		StudentName:      name,
		StudentRollNo:    rollNo,
	}
	mustCreate(t, db, &s)
	return s
}

func User(t testing.TB, db *gorm.DB, role string, schoolID uuid.UUID, phone string) userModel.UserModel {
	t.Helper()
	u := userModel.UserModel{
		Phone:    phone,
		UserName: role + " " + phone,
		Role:     role,
		SchoolID: schoolID,
		IsActive: true,
	}
	mustCreate(t, db, &u)
	return u
}

// Teacher gives userID a teaching profile and assigns it to sectionIDs.
func Teacher(t testing.TB, db *gorm.DB, userID, schoolID uuid.UUID, sectionIDs ...uuid.UUID) academicsModel.TeacherModel {
	t.Helper()
	tc := academicsModel.TeacherModel{TeacherUserID: userID, TeacherSchoolID: schoolID}
	mustCreate(t, db, &tc)
	for _, sid := range sectionIDs {
		mustCreate(t, db, &academicsModel.TeacherAssignmentModel{
			TeacherAssignmentTeacherID: tc.TeacherID,
			TeacherAssignmentSectionID: sid,
		})
	}
	return tc
}

func LinkParent(t testing.TB, db *gorm.DB, parentID, studentID uuid.UUID) {
	t.Helper()
	mustCreate(t, db, &academicsModel.ParentStudentModel{
		ParentStudentParentID:  parentID,
		ParentStudentStudentID: studentID,
	})
}
