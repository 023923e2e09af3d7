// Package eva holds the typed domain operations for the Eva backend.
//
// Operations turns entity-level requests (list tasks in a project, create a
// comment, count projects) into method names and keyword parameters, and
// hands them to a Caller. It knows the backend's namespaces (CmfTask,
// CmfProject, ...) and its parameter conventions:
//   - "slice" is a half-open [offset, offset+limit) window
//   - "filter" is a conjunction of [field, op, value] triples
//   - absent keys mean "unconstrained"; empty values are never sent
package eva

import (
	"encoding/json"
	"fmt"
)

// Operator is a filter comparison understood by the backend.
type Operator string

const (
	OpEq    Operator = "="
	OpNotEq Operator = "!="
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
	OpLess  Operator = "<"
	OpMore  Operator = ">"
)

// Filter is one (field, operator, value) constraint. It encodes as a
// three-element JSON array.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Eq builds an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

// Contains builds a case-insensitive substring filter: field ilike %text%.
func Contains(field, text string) Filter {
	return Filter{Field: field, Op: OpILike, Value: "%" + text + "%"}
}

// MarshalJSON encodes f as [field, op, value].
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Field, string(f.Op), f.Value})
}

// UnmarshalJSON decodes a [field, op, value] triple.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var triple []json.RawMessage
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("eva: filter must have 3 elements, got %d", len(triple))
	}
	var op string
	if err := json.Unmarshal(triple[0], &f.Field); err != nil {
		return fmt.Errorf("eva: filter field: %w", err)
	}
	if err := json.Unmarshal(triple[1], &op); err != nil {
		return fmt.Errorf("eva: filter operator: %w", err)
	}
	f.Op = Operator(op)
	return json.Unmarshal(triple[2], &f.Value)
}

// Page is the [offset, offset+limit) window sent as "slice".
type Page struct {
	Offset int
	Limit  int
}

// normalize clamps a negative offset to zero and replaces a non-positive
// limit with def.
func (p Page) normalize(def int) Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = def
	}
	return p
}

// MarshalJSON encodes p as [offset, offset+limit].
func (p Page) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.Offset, p.Offset + p.Limit})
}
