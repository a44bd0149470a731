// Package filter describes ad-hoc list conditions sent by API clients.
package filter

import (
	"fmt"
	"strings"
)

// ComparisonType is the operator of one condition.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	LessOrEqual    ComparisonType = "lte"
	Greater        ComparisonType = "gt"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %val%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %val%
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

var known = map[ComparisonType]bool{
	Equal: true, NotEqual: true, Less: true, LessOrEqual: true, Greater: true,
	GreaterOrEqual: true, InList: true, NotInList: true, Contains: true,
	NotContains: true, IsNull: true, IsNotNull: true,
}

// Item is one condition: field (snake_case column), operator and value.
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Validate checks the operator and that a value is present where needed.
func (i Item) Validate() error {
	if strings.TrimSpace(i.Field) == "" {
		return fmt.Errorf("filter field is empty")
	}
	if !known[i.Operator] {
		return fmt.Errorf("unknown filter operator %q", i.Operator)
	}
	if i.Operator != IsNull && i.Operator != IsNotNull && i.Value == nil {
		return fmt.Errorf("filter %s %s needs a value", i.Field, i.Operator)
	}
	return nil
}
