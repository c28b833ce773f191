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
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ValueRule validates a single filter value once its shape has been checked.
// It runs on eq/ne values and on every in/nin element; a null eq/ne value
// skips it.
type ValueRule func(value interface{}) error

// AnyValue accepts every value.
func AnyValue(interface{}) error { return nil }

func StringValue(value interface{}) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("must be a string")
	}
	return nil
}

func NumericValue(value interface{}) error {
	if _, ok := toNumber(value); !ok {
		return fmt.Errorf("must be numeric")
	}
	return nil
}

func DateValue(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		return nil
	case string:
		_, err := ParseDate(v)
		return err
	}
	return fmt.Errorf("must be a date")
}

func UUIDValue(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("must be a uuid string")
	}
	if _, err := uuid.Parse(s); err != nil {
		return fmt.Errorf("'%s' is not a valid uuid", s)
	}
	return nil
}

// OneOf accepts values whose string form is one of values.
func OneOf(values ...string) ValueRule {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	list := strings.Join(values, ", ")
	return func(value interface{}) error {
		if _, ok := allowed[fmt.Sprint(value)]; !ok {
			return fmt.Errorf("must be one of: %s", list)
		}
		return nil
	}
}

// Operator groups for the common column kinds.
var (
	EqualityOperators = []Operator{OpEq, OpNe, OpIn, OpNin}
	TextOperators     = []Operator{OpEq, OpNe, OpIn, OpNin, OpLike}
	NumericOperators  = []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNin}
	DateOperators     = []Operator{OpEq, OpNe, OpBetween}
)

// FieldRule declares one filterable field of a resource.
type FieldRule struct {
	Field     string
	Column    string
	Rule      ValueRule
	operators map[Operator]struct{}
	noSort    bool
	date      bool
}

// NewFieldRule builds a rule for field. It fails with InvalidOperator when an
// operator is not registered. The column defaults to the field name.
func NewFieldRule(field string, rule ValueRule, ops ...Operator) (FieldRule, error) {
	if rule == nil {
		rule = AnyValue
	}
	fr := FieldRule{
		Field:     field,
		Column:    field,
		Rule:      rule,
		operators: make(map[Operator]struct{}, len(ops)),
		date:      sameRule(rule, DateValue),
	}
	for _, op := range ops {
		if !op.IsValid() {
			return FieldRule{}, newValidationError(InvalidOperator, field, string(op),
				"operator '%s' of field '%s' is not registered", op, field)
		}
		fr.operators[op] = struct{}{}
	}
	return fr, nil
}

func sameRule(a, b ValueRule) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// MustFieldRule is NewFieldRule for rules declared in code.
func MustFieldRule(field string, rule ValueRule, ops ...Operator) FieldRule {
	fr, err := NewFieldRule(field, rule, ops...)
	if err != nil {
		panic(err)
	}
	return fr
}

// WithColumn maps the field onto a differently named column.
func (f FieldRule) WithColumn(column string) FieldRule {
	f.Column = column
	return f
}

// WithoutSort keeps the field filterable but not sortable, for fields that
// have no backing column.
func (f FieldRule) WithoutSort() FieldRule {
	f.noSort = true
	return f
}

// IsDate reports whether the field holds dates, in which case eq and ne
// values are compared as dates.
func (f FieldRule) IsDate() bool {
	return f.date
}

func (f FieldRule) Sortable() bool {
	return !f.noSort
}

func (f FieldRule) Allows(op Operator) bool {
	_, ok := f.operators[op]
	return ok
}

// Operators returns the allowed operators in registry order.
func (f FieldRule) Operators() []Operator {
	ops := make([]Operator, 0, len(f.operators))
	for _, spec := range operatorSpecs {
		if _, ok := f.operators[spec.Key]; ok {
			ops = append(ops, spec.Key)
		}
	}
	return ops
}

// FilterOverride replaces the default translation of one field. It receives
// the raw payload value of that field exactly as the client sent it, after
// the field passed validation. Overrides are an escape hatch for
// resource-specific predicates such as a multi-column search.
type FilterOverride func(qb bun.QueryBuilder, raw interface{}) bun.QueryBuilder

// Resource is the rule set of one entity type. It is built at startup and
// shared read-only between requests.
type Resource struct {
	name        string
	fields      map[string]FieldRule
	overrides   map[string]FilterOverride
	defaultSort SortSpec
}

func NewResource(name string, rules ...FieldRule) *Resource {
	r := &Resource{
		name:      name,
		fields:    make(map[string]FieldRule, len(rules)),
		overrides: make(map[string]FilterOverride),
	}
	for _, rule := range rules {
		r.fields[rule.Field] = rule
	}
	return r
}

func (r *Resource) Name() string {
	return r.name
}

func (r *Resource) Field(name string) (FieldRule, bool) {
	rule, ok := r.fields[name]
	return rule, ok
}

// Fields returns the filterable field names, sorted.
func (r *Resource) Fields() []string {
	names := make([]string, 0, len(r.fields))
	for name := range r.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortFields returns the sortable field names, sorted.
func (r *Resource) SortFields() []string {
	names := make([]string, 0, len(r.fields))
	for name, rule := range r.fields {
		if rule.Sortable() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SortDirections returns the accepted sort directions.
func (r *Resource) SortDirections() []string {
	return []string{string(Asc), string(Desc)}
}

// Override registers fn as the translation of field. It panics when the
// field has no rule, as an override on an unfilterable field could never run.
func (r *Resource) Override(field string, fn FilterOverride) *Resource {
	if _, ok := r.fields[field]; !ok {
		panic(fmt.Sprintf("query: override for unknown field '%s' on resource '%s'", field, r.name))
	}
	r.overrides[field] = fn
	return r
}

func (r *Resource) OverrideFor(field string) (FilterOverride, bool) {
	fn, ok := r.overrides[field]
	return fn, ok
}

// WithDefaultSort sets the order used when a request carries no sort.
func (r *Resource) WithDefaultSort(spec SortSpec) *Resource {
	r.defaultSort = spec
	return r
}

// DefaultSort returns the resource's default order, created_at desc unless
// configured otherwise.
func (r *Resource) DefaultSort() SortSpec {
	if len(r.defaultSort) == 0 {
		return SortSpec{{Field: DefaultSortField, Direction: Desc}}
	}
	return r.defaultSort
}

// WithFields returns a copy of r whose field rules are replaced by rules.
// Overrides are carried over for fields that still exist.
func (r *Resource) WithFields(rules ...FieldRule) *Resource {
	cp := NewResource(r.name, rules...)
	for field, fn := range r.overrides {
		if _, ok := cp.fields[field]; ok {
			cp.overrides[field] = fn
		}
	}
	cp.defaultSort = r.defaultSort
	return cp
}

func (r *Resource) column(field string) string {
	if rule, ok := r.fields[field]; ok && rule.Column != "" {
		return rule.Column
	}
	return field
}
