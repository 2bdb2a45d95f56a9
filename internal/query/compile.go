package query

import (
	"fmt"
	"strings"
)

// Params collects everything the list and export endpoints feed the compiler.
type Params struct {
	Filters  []Filter
	Logic    string // AND or OR, combines the advanced filter clauses
	Search   string // quick search across student nim/name and course code
	Status   string // quick filter, exact match
	Semester string // quick filter, exact match
	Sorts    []Sort
}

// Compiled is a parameterized predicate and ordering over the enrollment join.
// Where is empty when no predicate applies; OrderBy is never empty.
type Compiled struct {
	Where   string
	Args    []interface{}
	OrderBy string
}

// Compile builds the WHERE predicate and ORDER BY list for the three-way
// join. Clauses referencing unknown fields or disallowed operators are
// silently dropped; the advanced filter group is combined with the caller's
// logic operator and ANDed with search and quick filters. A trailing
// e.id DESC tiebreaker guarantees a total, reproducible ordering.
func Compile(p Params) Compiled {
	var args []interface{}
	var top []string

	logic := strings.ToUpper(p.Logic)
	if logic != "AND" && logic != "OR" {
		logic = "AND"
	}

	var clauses []string
	for _, f := range p.Filters {
		if f.Field == "" || f.Value == nil {
			continue
		}
		op := Operator(strings.ToLower(f.Operator))
		if f.Operator == "" {
			op = OpEquals
		}
		col, ok := FilterColumn(f.Field, op)
		if !ok {
			continue
		}
		if clause := compileClause(col, op, f.Value, &args); clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) > 0 {
		top = append(top, "("+strings.Join(clauses, " "+logic+" ")+")")
	}

	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		args = append(args, pattern, pattern, pattern)
		n := len(args)
		top = append(top, fmt.Sprintf("(s.nim ILIKE $%d OR s.name ILIKE $%d OR c.code ILIKE $%d)", n-2, n-1, n))
	}

	if p.Status != "" {
		args = append(args, p.Status)
		top = append(top, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if p.Semester != "" {
		args = append(args, p.Semester)
		top = append(top, fmt.Sprintf("e.semester = $%d", len(args)))
	}

	return Compiled{
		Where:   strings.Join(top, " AND "),
		Args:    args,
		OrderBy: compileOrderBy(p.Sorts),
	}
}

func compileClause(col string, op Operator, value interface{}, args *[]interface{}) string {
	switch op {
	case OpContains:
		*args = append(*args, "%"+stringValue(value)+"%")
		return fmt.Sprintf("%s ILIKE $%d", col, len(*args))
	case OpStartsWith:
		*args = append(*args, stringValue(value)+"%")
		return fmt.Sprintf("%s ILIKE $%d", col, len(*args))
	case OpIn:
		values := listValue(value)
		if len(values) == 0 {
			return ""
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			*args = append(*args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(*args))
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", "))
	case OpBetween:
		bounds := listValue(value)
		if len(bounds) != 2 {
			return ""
		}
		*args = append(*args, bounds[0], bounds[1])
		return fmt.Sprintf("%s BETWEEN $%d AND $%d", col, len(*args)-1, len(*args))
	default: // OpEquals
		*args = append(*args, value)
		return fmt.Sprintf("%s = $%d", col, len(*args))
	}
}

func compileOrderBy(sorts []Sort) string {
	var orders []string
	for _, s := range sorts {
		col, ok := SortColumn(s.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if strings.EqualFold(s.Direction, "desc") {
			dir = "DESC"
		}
		orders = append(orders, col+" "+dir)
	}
	if len(orders) == 0 {
		return "e.id DESC"
	}
	// tiebreaker keeps pagination and export order stable on duplicate values
	return strings.Join(append(orders, "e.id DESC"), ", ")
}

// stringValue renders a filter value for pattern operators.
func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// listValue coerces an in/between value from either a native list or a
// comma-separated string. Blank items are discarded.
func listValue(v interface{}) []interface{} {
	switch val := v.(type) {
	case string:
		parts := strings.Split(val, ",")
		out := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				out = append(out, s)
				continue
			}
			if item != nil {
				out = append(out, item)
			}
		}
		return out
	case []string:
		out := make([]interface{}, 0, len(val))
		for _, s := range val {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
