// Package query turns client-supplied filter/sort specifications into safe,
// parameterized SQL fragments against the enrollment/student/course join.
// Only whitelisted fields and operators ever reach the generated SQL; client
// values travel exclusively through bind arguments.
package query

// Operator enumerates the comparison operators a field may allow.
type Operator string

// Supported operators.
const (
	OpEquals     Operator = "equals"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startswith"
	OpIn         Operator = "in"
	OpBetween    Operator = "between"
)

// FilterField maps a client field name to its physical column and the closed
// set of operators that make semantic sense for it.
type FilterField struct {
	Column string
	Ops    map[Operator]struct{}
}

func ops(list ...Operator) map[Operator]struct{} {
	set := make(map[Operator]struct{}, len(list))
	for _, op := range list {
		set[op] = struct{}{}
	}
	return set
}

// filterSpec is the static filter whitelist. Identifiers and dates allow
// range operators; free text allows substring/prefix matching.
var filterSpec = map[string]FilterField{
	"id":            {Column: "e.id", Ops: ops(OpEquals, OpBetween, OpIn)},
	"academic_year": {Column: "e.academic_year", Ops: ops(OpEquals, OpBetween, OpIn)},
	"semester":      {Column: "e.semester", Ops: ops(OpEquals, OpIn)},
	"status":        {Column: "e.status", Ops: ops(OpEquals, OpIn)},
	"created_at":    {Column: "e.created_at", Ops: ops(OpEquals, OpBetween)},
	"updated_at":    {Column: "e.updated_at", Ops: ops(OpEquals, OpBetween)},

	"student_nim":   {Column: "s.nim", Ops: ops(OpEquals, OpContains, OpStartsWith, OpIn)},
	"student_name":  {Column: "s.name", Ops: ops(OpEquals, OpContains, OpStartsWith, OpIn)},
	"student_email": {Column: "s.email", Ops: ops(OpEquals, OpContains, OpStartsWith, OpIn)},

	"course_code":    {Column: "c.code", Ops: ops(OpEquals, OpContains, OpStartsWith, OpIn)},
	"course_name":    {Column: "c.name", Ops: ops(OpEquals, OpContains, OpStartsWith, OpIn)},
	"course_credits": {Column: "c.credits", Ops: ops(OpEquals, OpBetween, OpIn)},
}

// sortSpec is the static sort whitelist.
var sortSpec = map[string]string{
	"id":            "e.id",
	"academic_year": "e.academic_year",
	"semester":      "e.semester",
	"status":        "e.status",
	"created_at":    "e.created_at",
	"updated_at":    "e.updated_at",

	"student_nim":   "s.nim",
	"student_name":  "s.name",
	"student_email": "s.email",

	"course_code":    "c.code",
	"course_name":    "c.name",
	"course_credits": "c.credits",
}

// FilterColumn returns the physical column for field when op is allowed on it.
func FilterColumn(field string, op Operator) (string, bool) {
	spec, ok := filterSpec[field]
	if !ok {
		return "", false
	}
	if _, allowed := spec.Ops[op]; !allowed {
		return "", false
	}
	return spec.Column, true
}

// SortColumn returns the physical column for a sortable field.
func SortColumn(field string) (string, bool) {
	col, ok := sortSpec[field]
	return col, ok
}
