package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterColumnAllowsDeclaredOperators(t *testing.T) {
	col, ok := FilterColumn("student_name", OpContains)
	require.True(t, ok)
	assert.Equal(t, "s.name", col)

	col, ok = FilterColumn("course_credits", OpBetween)
	require.True(t, ok)
	assert.Equal(t, "c.credits", col)
}

func TestFilterColumnRejectsDisallowedOperator(t *testing.T) {
	// status is an enum; substring matching makes no sense for it
	_, ok := FilterColumn("status", OpContains)
	assert.False(t, ok)

	_, ok = FilterColumn("student_name", OpBetween)
	assert.False(t, ok)
}

func TestFilterColumnUnknownField(t *testing.T) {
	_, ok := FilterColumn("password", OpEquals)
	assert.False(t, ok)

	_, ok = FilterColumn("", OpEquals)
	assert.False(t, ok)
}

func TestSortColumn(t *testing.T) {
	col, ok := SortColumn("course_credits")
	require.True(t, ok)
	assert.Equal(t, "c.credits", col)

	_, ok = SortColumn("drop table")
	assert.False(t, ok)
}
