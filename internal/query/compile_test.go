package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEmptyParams(t *testing.T) {
	compiled := Compile(Params{})
	assert.Empty(t, compiled.Where)
	assert.Empty(t, compiled.Args)
	assert.Equal(t, "e.id DESC", compiled.OrderBy)
}

func TestCompileEquals(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{{Field: "status", Operator: "equals", Value: "DRAFT"}},
	})
	assert.Equal(t, "(e.status = $1)", compiled.Where)
	assert.Equal(t, []interface{}{"DRAFT"}, compiled.Args)
}

func TestCompileMissingOperatorDefaultsToEquals(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{{Field: "status", Value: "DRAFT"}},
	})
	assert.Equal(t, "(e.status = $1)", compiled.Where)
}

func TestCompileContainsAndStartsWith(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{
			{Field: "student_name", Operator: "contains", Value: "ada"},
			{Field: "course_code", Operator: "startswith", Value: "IF"},
		},
	})
	assert.Equal(t, "(s.name ILIKE $1 AND c.code ILIKE $2)", compiled.Where)
	assert.Equal(t, []interface{}{"%ada%", "IF%"}, compiled.Args)
}

func TestCompileInFromCommaStringEqualsNativeList(t *testing.T) {
	fromString := Compile(Params{
		Filters: []Filter{{Field: "status", Operator: "in", Value: "DRAFT, APPROVED"}},
	})
	fromList := Compile(Params{
		Filters: []Filter{{Field: "status", Operator: "in", Value: []interface{}{"DRAFT", "APPROVED"}}},
	})
	assert.Equal(t, fromString.Where, fromList.Where)
	assert.Equal(t, fromString.Args, fromList.Args)
	assert.Equal(t, "(e.status IN ($1, $2))", fromString.Where)
}

func TestCompileInEmptyValueDropsClause(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{{Field: "status", Operator: "in", Value: " , ,"}},
	})
	assert.Empty(t, compiled.Where)
	assert.Empty(t, compiled.Args)
}

func TestCompileBetween(t *testing.T) {
	fromString := Compile(Params{
		Filters: []Filter{{Field: "academic_year", Operator: "between", Value: "2020/2021,2023/2024"}},
	})
	fromList := Compile(Params{
		Filters: []Filter{{Field: "academic_year", Operator: "between", Value: []interface{}{"2020/2021", "2023/2024"}}},
	})
	assert.Equal(t, "(e.academic_year BETWEEN $1 AND $2)", fromString.Where)
	assert.Equal(t, fromString.Args, fromList.Args)
}

func TestCompileBetweenWrongArityDropsClause(t *testing.T) {
	for _, value := range []interface{}{"2021", "a,b,c", []interface{}{"x"}} {
		compiled := Compile(Params{
			Filters: []Filter{{Field: "academic_year", Operator: "between", Value: value}},
		})
		assert.Empty(t, compiled.Where, "value %v should drop the clause", value)
	}
}

func TestCompileUnknownFieldNeverErrors(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{
			{Field: "secret_column", Operator: "equals", Value: "x"},
			{Field: "status", Operator: "equals", Value: "DRAFT"},
		},
	})
	assert.Equal(t, "(e.status = $1)", compiled.Where)
	assert.Equal(t, []interface{}{"DRAFT"}, compiled.Args)
}

func TestCompileDisallowedOperatorDropped(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{{Field: "status", Operator: "contains", Value: "DRA"}},
	})
	assert.Empty(t, compiled.Where)
}

func TestCompileNilValueDropped(t *testing.T) {
	compiled := Compile(Params{
		Filters: []Filter{{Field: "status", Operator: "equals", Value: nil}},
	})
	assert.Empty(t, compiled.Where)
}

func TestCompileORLogic(t *testing.T) {
	compiled := Compile(Params{
		Logic: "OR",
		Filters: []Filter{
			{Field: "status", Operator: "equals", Value: "DRAFT"},
			{Field: "semester", Operator: "equals", Value: "GANJIL"},
		},
	})
	assert.Equal(t, "(e.status = $1 OR e.semester = $2)", compiled.Where)
}

func TestCompileInvalidLogicDefaultsToAND(t *testing.T) {
	compiled := Compile(Params{
		Logic: "XOR",
		Filters: []Filter{
			{Field: "status", Operator: "equals", Value: "DRAFT"},
			{Field: "semester", Operator: "equals", Value: "GANJIL"},
		},
	})
	assert.Equal(t, "(e.status = $1 AND e.semester = $2)", compiled.Where)
}

func TestCompileSearchIsANDedWithFilters(t *testing.T) {
	compiled := Compile(Params{
		Logic:   "OR",
		Search:  "ada",
		Filters: []Filter{{Field: "status", Operator: "equals", Value: "DRAFT"}},
	})
	assert.Equal(t, "(e.status = $1) AND (s.nim ILIKE $2 OR s.name ILIKE $3 OR c.code ILIKE $4)", compiled.Where)
	assert.Equal(t, []interface{}{"DRAFT", "%ada%", "%ada%", "%ada%"}, compiled.Args)
}

func TestCompileQuickFilters(t *testing.T) {
	compiled := Compile(Params{Status: "APPROVED", Semester: "GENAP"})
	assert.Equal(t, "e.status = $1 AND e.semester = $2", compiled.Where)
	assert.Equal(t, []interface{}{"APPROVED", "GENAP"}, compiled.Args)
}

func TestCompileOrderByAppendsTiebreaker(t *testing.T) {
	compiled := Compile(Params{
		Sorts: []Sort{
			{Field: "course_credits", Direction: "desc"},
			{Field: "student_name", Direction: "asc"},
		},
	})
	assert.Equal(t, "c.credits DESC, s.name ASC, e.id DESC", compiled.OrderBy)
}

func TestCompileOrderBySkipsUnknownFields(t *testing.T) {
	compiled := Compile(Params{
		Sorts: []Sort{
			{Field: "no_such_field", Direction: "asc"},
			{Field: "status", Direction: "desc"},
		},
	})
	assert.Equal(t, "e.status DESC, e.id DESC", compiled.OrderBy)
}

func TestCompileOrderByAllUnknownFallsBackToIDDesc(t *testing.T) {
	compiled := Compile(Params{
		Sorts: []Sort{{Field: "nope", Direction: "asc"}},
	})
	assert.Equal(t, "e.id DESC", compiled.OrderBy)
}

func TestCompileOrderByCoercesDirection(t *testing.T) {
	compiled := Compile(Params{
		Sorts: []Sort{{Field: "status", Direction: "sideways"}},
	})
	assert.Equal(t, "e.status ASC, e.id DESC", compiled.OrderBy)
}

func TestCompileDeterministicForSameInput(t *testing.T) {
	params := Params{
		Logic:    "AND",
		Search:   "2021",
		Status:   "DRAFT",
		Semester: "GANJIL",
		Filters: []Filter{
			{Field: "course_credits", Operator: "between", Value: "2,4"},
			{Field: "student_nim", Operator: "startswith", Value: "2021"},
		},
		Sorts: []Sort{{Field: "course_credits", Direction: "desc"}},
	}
	first := Compile(params)
	second := Compile(params)
	require.Equal(t, first.Where, second.Where)
	require.Equal(t, first.Args, second.Args)
	require.Equal(t, first.OrderBy, second.OrderBy)
}
