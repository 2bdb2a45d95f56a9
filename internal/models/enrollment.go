package models

import "time"

// Semester identifies one of the two term halves within an academic year.
type Semester string

// Possible semesters.
const (
	SemesterGanjil Semester = "GANJIL"
	SemesterGenap  Semester = "GENAP"
)

// EnrollmentStatus represents the workflow state of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusDraft     EnrollmentStatus = "DRAFT"
	EnrollmentStatusSubmitted EnrollmentStatus = "SUBMITTED"
	EnrollmentStatusApproved  EnrollmentStatus = "APPROVED"
	EnrollmentStatusRejected  EnrollmentStatus = "REJECTED"
)

// Enrollment links one student to one course for one academic term.
// The tuple (student_id, course_id, academic_year, semester) is unique.
type Enrollment struct {
	ID           int64            `db:"id" json:"id"`
	StudentID    int64            `db:"student_id" json:"student_id"`
	CourseID     int64            `db:"course_id" json:"course_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Semester     Semester         `db:"semester" json:"semester"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with its joined student and course.
type EnrollmentDetail struct {
	Enrollment
	Student Student `json:"student"`
	Course  Course  `json:"course"`
}

// EnrollmentRow is one flattened row of the three-way join, used by the
// list endpoint and the CSV export.
type EnrollmentRow struct {
	ID           int64            `db:"id" json:"id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	Semester     Semester         `db:"semester" json:"semester"`
	Status       EnrollmentStatus `db:"status" json:"status"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`

	StudentNIM   string `db:"student_nim" json:"student_nim"`
	StudentName  string `db:"student_name" json:"student_name"`
	StudentEmail string `db:"student_email" json:"student_email"`

	CourseCode    string `db:"course_code" json:"course_code"`
	CourseName    string `db:"course_name" json:"course_name"`
	CourseCredits int    `db:"course_credits" json:"course_credits"`
}

// Pagination carries offset paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
