package query

import (
	"encoding/json"
	"strings"

	appErrors "github.com/noah-isme/enrollment-admin-api/pkg/errors"
)

// Filter is one client-supplied filter clause.
type Filter struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// Sort is one client-supplied sort directive.
type Sort struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// ParseFilters decodes a JSON-encoded filter list. An empty payload yields no
// filters; malformed JSON is a client error, unlike unknown fields which are
// tolerated downstream.
func ParseFilters(raw string) ([]Filter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var filters []Filter
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "filters must be a valid JSON array")
	}
	return filters, nil
}

// ParseSorts decodes a JSON-encoded sort list. When the list is absent or
// empty it falls back to the legacy flat sort_by/sort_dir pair, defaulting to
// id descending.
func ParseSorts(raw, legacyField, legacyDir string) ([]Sort, error) {
	if strings.TrimSpace(raw) != "" {
		var sorts []Sort
		if err := json.Unmarshal([]byte(raw), &sorts); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "sorts must be a valid JSON array")
		}
		if len(sorts) > 0 {
			return sorts, nil
		}
	}

	field := legacyField
	if field == "" {
		field = "id"
	}
	dir := "desc"
	if strings.EqualFold(legacyDir, "asc") {
		dir = "asc"
	}
	return []Sort{{Field: field, Direction: dir}}, nil
}
