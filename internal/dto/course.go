package dto

// CreateCourseRequest is the POST /courses payload.
type CreateCourseRequest struct {
	Code    string `json:"code" validate:"required,course_code"`
	Name    string `json:"name" validate:"required,max=255"`
	Credits int    `json:"credits" validate:"required,min=1,max=6"`
}
