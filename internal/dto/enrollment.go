package dto

// CreateEnrollmentRequest is the POST /enrollments payload. The student and
// course are identified by their natural keys and upserted alongside the
// enrollment itself.
type CreateEnrollmentRequest struct {
	NIM          string `json:"nim" validate:"required,nim"`
	StudentName  string `json:"student_name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email,max=255"`
	CourseCode   string `json:"course_code" validate:"required,course_code"`
	CourseName   string `json:"course_name" validate:"required,max=255"`
	Credits      int    `json:"credits" validate:"required,min=1,max=6"`
	AcademicYear string `json:"academic_year" validate:"required,academic_year"`
	Semester     string `json:"semester" validate:"required,oneof=GANJIL GENAP"`
	Status       string `json:"status" validate:"required,oneof=DRAFT SUBMITTED APPROVED REJECTED"`
}

// UpdateEnrollmentRequest is the PUT/PATCH payload. Every field is optional;
// only supplied fields are validated and applied.
type UpdateEnrollmentRequest struct {
	NIM          *string `json:"nim" validate:"omitempty,nim"`
	StudentName  *string `json:"student_name" validate:"omitempty,max=255"`
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	CourseCode   *string `json:"course_code" validate:"omitempty,course_code"`
	CourseName   *string `json:"course_name" validate:"omitempty,max=255"`
	Credits      *int    `json:"credits" validate:"omitempty,min=1,max=6"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,academic_year"`
	Semester     *string `json:"semester" validate:"omitempty,oneof=GANJIL GENAP"`
	Status       *string `json:"status" validate:"omitempty,oneof=DRAFT SUBMITTED APPROVED REJECTED"`
}

// ListEnrollmentsQuery mirrors the query parameters shared by the list and
// export endpoints. Filters and Sorts hold the raw JSON payloads.
type ListEnrollmentsQuery struct {
	Filters  string
	Sorts    string
	SortBy   string
	SortDir  string
	Logic    string
	Search   string
	Status   string
	Semester string
	Page     int
	PageSize int
}
