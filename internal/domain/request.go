package domain

import "time"

// Department enumerates the offices a request can be routed to.
type Department string

const (
	DepartmentAcademic    Department = "Academic"
	DepartmentHostel      Department = "Hostel"
	DepartmentFinance     Department = "Finance"
	DepartmentExamination Department = "Examination"
	DepartmentLibrary     Department = "Library"
)

// DefaultDepartment receives requests that cannot be placed anywhere else.
const DefaultDepartment = DepartmentAcademic

// Departments lists every valid department.
var Departments = []Department{
	DepartmentAcademic,
	DepartmentHostel,
	DepartmentFinance,
	DepartmentExamination,
	DepartmentLibrary,
}

// Valid reports whether d is one of the known departments.
func (d Department) Valid() bool {
	for _, candidate := range Departments {
		if candidate == d {
			return true
		}
	}
	return false
}

// Confidence tags how sure the classifier was about the department.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Request is the aggregate for a student administrative request.
type Request struct {
	ID               string
	StudentName      string
	StudentID        string
	RequestText      string
	Summary          string
	Department       Department
	Status           RequestStatus
	Remarks          string
	AdminRemarks     string
	AuthorityRemarks string
	AIConfidence     Confidence
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ClearRemarks resets every remark field.
func (r *Request) ClearRemarks() {
	r.Remarks = ""
	r.AdminRemarks = ""
	r.AuthorityRemarks = ""
}
