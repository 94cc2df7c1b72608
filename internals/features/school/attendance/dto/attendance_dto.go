package dto

import (
	"github.com/google/uuid"
)

/* ===================== Requests ===================== */

type AttendanceEntryRequest struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
}

type MarkAttendanceRequest struct {
	SectionID   string                   `json:"sectionId" validate:"required,uuid"`
	Date        string                   `json:"date" validate:"required"`
	Attendances []AttendanceEntryRequest `json:"attendances" validate:"required,min=1,dive"`
}

// DateRangeQuery is shared by the list endpoints. Date wins over the range.
type DateRangeQuery struct {
	Date      string `query:"date"`
	StartDate string `query:"startDate"`
	EndDate   string `query:"endDate"`
}

/* ===================== Responses ===================== */

type MarkAttendanceResponse struct {
	Message   string `json:"message"`
	Date      string `json:"date"`
	ClassName string `json:"className"`
	Section   string `json:"section"`
	Count     int    `json:"count"`
}

type ClassRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type SectionRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Class *ClassRef `json:"class,omitempty"`
}

type RosterEntry struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	RollNo int       `json:"rollNo"`
	Status *string   `json:"status"`
}

type DaySummary struct {
	TotalStudents int  `json:"totalStudents"`
	Present       int  `json:"present"`
	Absent        int  `json:"absent"`
	Late          int  `json:"late"`
	Excused       int  `json:"excused"`
	NotMarked     int  `json:"notMarked"`
	IsMarked      bool `json:"isMarked"`
}

type SectionDayResponse struct {
	Date     string        `json:"date"`
	Section  SectionRef    `json:"section"`
	Students []RosterEntry `json:"students"`
	Summary  DaySummary    `json:"summary"`
}

type StudentRef struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	RollNo      int       `json:"rollNo"`
	ClassName   string    `json:"className"`
	SectionName string    `json:"sectionName"`
}

type AttendanceView struct {
	ID      uuid.UUID  `json:"id"`
	Date    string     `json:"date"`
	Status  string     `json:"status"`
	Student StudentRef `json:"student"`
}

type StudentDetail struct {
	ID      uuid.UUID  `json:"id"`
	Name    string     `json:"name"`
	RollNo  int        `json:"rollNo"`
	Class   ClassRef   `json:"class"`
	Section SectionRef `json:"section"`
}

type StudentAttendanceResponse struct {
	Student    StudentDetail    `json:"student"`
	Attendance []AttendanceView `json:"attendance"`
}
