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

// Package junction defines splice junction records as reported by junction
// databases such as Snaptron.
package junction

import (
	"strconv"
	"strings"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	Invalid Kind = iota
	Number
	Text
)

// Value is a field value reported for a junction.  It is either numeric or
// textual; the zero Value is Invalid.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Num returns a numeric Value.
func Num(f float64) Value {
	return Value{kind: Number, num: f, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Str returns a textual Value.
func Str(s string) Value {
	return Value{kind: Text, text: s}
}

// ParseValue returns a numeric Value if s parses as a floating point number
// and a textual Value otherwise.  The original text is preserved either way.
func ParseValue(s string) Value {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Value{kind: Number, num: f, text: s}
	}
	return Str(s)
}

// Kind returns the type held by v.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric content of v and whether v is numeric.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == Number
}

func (v Value) String() string {
	return v.text
}

// Record describes a single splice junction.  Start and End are the intron
// boundaries as reported by the source.
type Record struct {
	Chromosome string
	Start, End int
	Coverage   float64

	// HasCoverage reports whether the source reported Coverage at all.
	HasCoverage bool

	// Fields holds every named column reported by the source.  Sources are not
	// required to report the same set of fields for every record.
	Fields map[string]Value
}

// Lookup returns the value of the named field.  Fields reported by the source
// take precedence; the names chromosome, start, end and coverage fall back to
// the corresponding Record members.  Coverage is only found when HasCoverage
// is set.
func (r Record) Lookup(name string) (Value, bool) {
	if v, ok := r.Fields[name]; ok {
		return v, true
	}
	switch name {
	case "chromosome":
		if r.Chromosome != "" {
			return Str(r.Chromosome), true
		}
	case "start":
		return Num(float64(r.Start)), true
	case "end":
		return Num(float64(r.End)), true
	case "coverage":
		if r.HasCoverage {
			return Num(r.Coverage), true
		}
	}
	return Value{}, false
}
