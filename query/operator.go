/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Operator is the key of a filter operator as it appears in a request.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNe      Operator = "ne"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpIn      Operator = "in"
	OpNin     Operator = "nin"
	OpLike    Operator = "like"
	OpBetween Operator = "between"
)

// ValueShape constrains the value an operator accepts.
type ValueShape int

const (
	ShapeScalar ValueShape = iota
	ShapeNumeric
	ShapeArray
	ShapeString
	ShapeDateRange
)

func (s ValueShape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeNumeric:
		return "numeric"
	case ShapeArray:
		return "array"
	case ShapeString:
		return "string"
	case ShapeDateRange:
		return "date range"
	default:
		return "unknown"
	}
}

// SQLForm is the predicate family an operator translates to.
type SQLForm int

const (
	FormCompare SQLForm = iota
	FormIn
	FormNotIn
	FormLike
	FormBetween
)

// OperatorSpec is the immutable contract of one operator.
type OperatorSpec struct {
	Key      Operator
	Shape    ValueShape
	Form     SQLForm
	Symbol   string
	Nullable bool
}

// Registry order is also the order in which operators of one field are
// validated and translated.
var operatorSpecs = []OperatorSpec{
	{Key: OpEq, Shape: ShapeScalar, Form: FormCompare, Symbol: "=", Nullable: true},
	{Key: OpNe, Shape: ShapeScalar, Form: FormCompare, Symbol: "!=", Nullable: true},
	{Key: OpGt, Shape: ShapeNumeric, Form: FormCompare, Symbol: ">"},
	{Key: OpGte, Shape: ShapeNumeric, Form: FormCompare, Symbol: ">="},
	{Key: OpLt, Shape: ShapeNumeric, Form: FormCompare, Symbol: "<"},
	{Key: OpLte, Shape: ShapeNumeric, Form: FormCompare, Symbol: "<="},
	{Key: OpIn, Shape: ShapeArray, Form: FormIn},
	{Key: OpNin, Shape: ShapeArray, Form: FormNotIn},
	{Key: OpLike, Shape: ShapeString, Form: FormLike},
	{Key: OpBetween, Shape: ShapeDateRange, Form: FormBetween},
}

var operatorIndex = func() map[Operator]int {
	idx := make(map[Operator]int, len(operatorSpecs))
	for i, spec := range operatorSpecs {
		idx[spec.Key] = i
	}
	return idx
}()

// Operators returns every registered operator in canonical order.
func Operators() []OperatorSpec {
	specs := make([]OperatorSpec, len(operatorSpecs))
	copy(specs, operatorSpecs)
	return specs
}

// LookupOperator returns the spec registered under key.
func LookupOperator(key string) (OperatorSpec, error) {
	if i, ok := operatorIndex[Operator(key)]; ok {
		return operatorSpecs[i], nil
	}
	return OperatorSpec{}, newValidationError(InvalidOperator, "", key, "operator '%s' is not registered", key)
}

func (o Operator) IsValid() bool {
	_, ok := operatorIndex[o]
	return ok
}

func (o Operator) rank() int {
	if i, ok := operatorIndex[o]; ok {
		return i
	}
	return len(operatorSpecs)
}

// Normalize checks value against the operator's shape and returns the form
// handed to the translator: numbers for the numeric family, []interface{} for
// in/nin and a DateRange for between. The returned string describes the
// violation when the value is rejected.
func (s OperatorSpec) Normalize(value interface{}) (interface{}, string) {
	switch s.Shape {
	case ShapeScalar:
		if value == nil {
			if s.Nullable {
				return nil, ""
			}
			return nil, "must not be null"
		}
		v, ok := normalizeScalar(value)
		if !ok {
			return nil, "must be a scalar value"
		}
		return v, ""
	case ShapeNumeric:
		n, ok := toNumber(value)
		if !ok {
			return nil, "must be numeric"
		}
		return n, ""
	case ShapeArray:
		items, ok := toSlice(value)
		if !ok {
			return nil, "must be an array"
		}
		if len(items) == 0 {
			return nil, "must be a non-empty array"
		}
		for i, item := range items {
			v, ok := normalizeScalar(item)
			if !ok || item == nil {
				return nil, fmt.Sprintf("element %d must be a non-null scalar", i)
			}
			items[i] = v
		}
		return items, ""
	case ShapeString:
		str, ok := value.(string)
		if !ok {
			return nil, "must be a string"
		}
		return str, ""
	case ShapeDateRange:
		str, ok := value.(string)
		if !ok {
			return nil, `must be a string in the format "start_date,end_date"`
		}
		r, err := ParseDateRange(str)
		if err != nil {
			return nil, err.Error()
		}
		return r, ""
	}
	return nil, "has an unsupported shape"
}

func isScalar(value interface{}) bool {
	_, ok := normalizeScalar(value)
	return ok
}

func normalizeScalar(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case nil, string, bool:
		return v, true
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return toNumber(v)
	case json.Number:
		if n, ok := toNumber(v); ok {
			return n, true
		}
		return v.String(), true
	}
	return nil, false
}

func toNumber(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	}
	return nil, false
}

func parseNumber(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

func toSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		items := make([]interface{}, len(v))
		copy(items, v)
		return items, true
	case []string:
		items := make([]interface{}, len(v))
		for i, s := range v {
			items[i] = s
		}
		return items, true
	case []int:
		items := make([]interface{}, len(v))
		for i, n := range v {
			items[i] = n
		}
		return items, true
	case []int64:
		items := make([]interface{}, len(v))
		for i, n := range v {
			items[i] = n
		}
		return items, true
	case []float64:
		items := make([]interface{}, len(v))
		for i, n := range v {
			items[i] = n
		}
		return items, true
	}
	return nil, false
}

// DateRange is an inclusive range normalised to whole days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate parses s with the accepted date layouts, in UTC unless s carries
// its own offset.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("'%s' is not a valid date", s)
}

var dayLayouts = []string{"2006-01-02", "2006/01/02"}

// normalizeDate turns an eq/ne date string into a time.Time, or into the
// DateRange of the whole day when it names a day without a time of day.
func normalizeDate(value interface{}) (interface{}, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateRange{Start: startOfDay(t), End: endOfDay(t)}, nil
		}
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ParseDateRange parses "start,end". The start bound moves to the start of
// its day and the end bound to the end of its day.
func ParseDateRange(s string) (DateRange, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return DateRange{}, fmt.Errorf(`must be in the format "start_date,end_date"`)
	}
	start, err := ParseDate(parts[0])
	if err != nil {
		return DateRange{}, err
	}
	end, err := ParseDate(parts[1])
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{Start: startOfDay(start), End: endOfDay(end)}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Microsecond), t.Location())
}
