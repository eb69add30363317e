// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package filter implements the junction filter language: a single
// comparison of a record field against a value, such as "coverage>0.5" or
// "left_motif==GT".
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/googlegenomics/exonedge/internal/junction"
)

// Operator is a comparison operator.
type Operator string

const (
	Less         Operator = "<"
	LessEqual    Operator = "<="
	Greater      Operator = ">"
	GreaterEqual Operator = ">="
	Equal        Operator = "=="
	NotEqual     Operator = "!="
)

var operators = map[Operator]bool{
	Less: true, LessEqual: true, Greater: true, GreaterEqual: true, Equal: true, NotEqual: true,
}

const operatorChars = "<>=!"

// ErrInvalidFilter is matched (using errors.Is) by every error returned from
// Compile.
var ErrInvalidFilter = errors.New("invalid filter")

// InvalidFilterError describes why a filter could not be compiled.
type InvalidFilterError struct {
	Input  string
	Reason string
}

func (err *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid filter %q: %s", err.Input, err.Reason)
}

// Is reports whether target is ErrInvalidFilter.
func (err *InvalidFilterError) Is(target error) bool {
	return target == ErrInvalidFilter
}

// Expression is a compiled filter.  The zero Expression matches every record.
type Expression struct {
	Field    string
	Operator Operator
	Value    junction.Value
}

// Compile parses text into an Expression.  Empty text compiles to an
// expression that matches every record.
func Compile(text string) (Expression, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return Expression{}, nil
	}
	invalid := func(format string, args ...interface{}) (Expression, error) {
		return Expression{}, &InvalidFilterError{text, fmt.Sprintf(format, args...)}
	}

	start := strings.IndexAny(input, operatorChars)
	if start < 0 {
		return invalid("no comparison operator (want one of <, <=, >, >=, ==, !=)")
	}
	end := start
	for end < len(input) && strings.IndexByte(operatorChars, input[end]) >= 0 {
		end++
	}

	op := Operator(input[start:end])
	if !operators[op] {
		return invalid("unrecognized operator %q", op)
	}
	field := strings.TrimSpace(input[:start])
	if field == "" {
		return invalid("empty field name")
	}
	value := strings.TrimSpace(input[end:])
	if value == "" {
		return invalid("empty value")
	}

	return Expression{Field: field, Operator: op, Value: junction.ParseValue(value)}, nil
}

// MatchesAll reports whether expr places no constraint on records.
func (expr Expression) MatchesAll() bool {
	return expr.Field == ""
}

// Matches reports whether record satisfies expr.  A record that does not
// report the field never matches; neither does a comparison that is not
// meaningful for the field's type.
func (expr Expression) Matches(record junction.Record) bool {
	if expr.MatchesAll() {
		return true
	}
	got, ok := record.Lookup(expr.Field)
	if !ok {
		return false
	}

	if a, ok := got.Float(); ok {
		if b, ok := expr.Value.Float(); ok {
			return compare(expr.Operator, a, b)
		}
	}
	if got.Kind() == junction.Text && expr.Value.Kind() == junction.Text {
		return compare(expr.Operator, got.String(), expr.Value.String())
	}

	switch expr.Operator {
	case Equal:
		return got.String() == expr.Value.String()
	case NotEqual:
		return got.String() != expr.Value.String()
	}
	return false
}

// Matches reports whether record satisfies expr.
func Matches(expr Expression, record junction.Record) bool {
	return expr.Matches(record)
}

func (expr Expression) String() string {
	if expr.MatchesAll() {
		return ""
	}
	return expr.Field + string(expr.Operator) + expr.Value.String()
}

func compare[T float64 | string](op Operator, a, b T) bool {
	switch op {
	case Less:
		return a < b
	case LessEqual:
		return a <= b
	case Greater:
		return a > b
	case GreaterEqual:
		return a >= b
	case Equal:
		return a == b
	case NotEqual:
		return a != b
	}
	return false
}
