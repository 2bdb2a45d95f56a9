package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	NIM          string `validate:"omitempty,nim"`
	CourseCode   string `validate:"omitempty,course_code"`
	AcademicYear string `validate:"omitempty,academic_year"`
}

func TestNIMPattern(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(payload{NIM: "20210001"}))
	require.NoError(t, v.Struct(payload{NIM: "202100010001"}))
	assert.Error(t, v.Struct(payload{NIM: "1234567"}))
	assert.Error(t, v.Struct(payload{NIM: "1234567890123"}))
	assert.Error(t, v.Struct(payload{NIM: "2021ABCD"}))
}

func TestCourseCodePattern(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(payload{CourseCode: "IF001"}))
	require.NoError(t, v.Struct(payload{CourseCode: "MATH123"}))
	assert.Error(t, v.Struct(payload{CourseCode: "if001"}))
	assert.Error(t, v.Struct(payload{CourseCode: "I001"}))
	assert.Error(t, v.Struct(payload{CourseCode: "IF01"}))
}

func TestAcademicYearPattern(t *testing.T) {
	v := New()
	require.NoError(t, v.Struct(payload{AcademicYear: "2023/2024"}))
	assert.Error(t, v.Struct(payload{AcademicYear: "2023-2024"}))
	assert.Error(t, v.Struct(payload{AcademicYear: "23/24"}))
}
