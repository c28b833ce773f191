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
	"sort"

	"github.com/cloudflax/cloudflax/types"
)

// Condition is one validated (field, operator, value) triple. Value is
// already normalised for its operator and safe to translate as is.
type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// FieldFilter groups the conditions of one field with the raw value the
// client sent for it, which overrides receive.
type FieldFilter struct {
	Field      string
	Raw        interface{}
	Conditions []Condition
}

// FilterSet is the validated form of a filter payload. Fields are ordered by
// name and the conditions of a field by operator registry order.
type FilterSet struct {
	Filters []FieldFilter
}

func (s *FilterSet) IsEmpty() bool {
	return s == nil || len(s.Filters) == 0
}

// Conditions flattens the set into its triples.
func (s *FilterSet) Conditions() []Condition {
	if s == nil {
		return nil
	}
	var conds []Condition
	for _, f := range s.Filters {
		conds = append(conds, f.Conditions...)
	}
	return conds
}

// ValidateFilters checks raw against the field rules of res. Every violation
// in the payload is reported; the returned error is a *ValidationFailure.
func ValidateFilters(raw types.JsonObject, res *Resource) (*FilterSet, error) {
	set := &FilterSet{}
	failure := &ValidationFailure{}

	fields := raw.Keys()
	sort.Strings(fields)

	for _, field := range fields {
		value := raw[field]
		rule, ok := res.Field(field)
		if !ok {
			failure.add(UnknownField, field, "", "The field '%s' is not allowed.", field)
			continue
		}

		var ops map[string]interface{}
		switch v := value.(type) {
		case map[string]interface{}:
			ops = v
		case types.JsonObject:
			ops = v
		default:
			if !isScalar(value) {
				failure.add(MalformedFilterEntry, field, "",
					"Filter conditions for field '%s' must be an operator map or a scalar value.", field)
				continue
			}
			ops = map[string]interface{}{string(OpEq): value}
		}

		if len(ops) == 0 {
			failure.add(MalformedFilterEntry, field, "", "Filter conditions for field '%s' must not be empty.", field)
			continue
		}

		ff := FieldFilter{Field: field, Raw: value}
		valid := true
		for _, key := range sortedOperators(ops) {
			cond, err := validateCondition(rule, key, ops[key])
			if err != nil {
				failure.Errors = append(failure.Errors, err)
				valid = false
				continue
			}
			ff.Conditions = append(ff.Conditions, cond)
		}
		if valid {
			set.Filters = append(set.Filters, ff)
		}
	}

	if err := failure.errOrNil(); err != nil {
		logger.Debugf("rejected filters for %s: %v", res.Name(), err)
		return nil, err
	}
	return set, nil
}

func validateCondition(rule FieldRule, key string, value interface{}) (Condition, *ValidationError) {
	op := Operator(key)
	if !op.IsValid() || !rule.Allows(op) {
		return Condition{}, newValidationError(UnknownOperator, rule.Field, key,
			"The operator '%s' is not allowed for field '%s'.", key, rule.Field)
	}

	spec, _ := LookupOperator(key)
	normalized, problem := spec.Normalize(value)
	if problem != "" {
		return Condition{}, newValidationError(InvalidValueShape, rule.Field, key,
			"Invalid value for '%s' on field '%s': %s.", key, rule.Field, problem)
	}

	if err := applyValueRule(rule, spec, normalized); err != nil {
		return Condition{}, newValidationError(InvalidValueShape, rule.Field, key,
			"Invalid value for '%s' on field '%s': %s.", key, rule.Field, err.Error())
	}
	if rule.IsDate() && spec.Form == FormCompare && normalized != nil {
		date, err := normalizeDate(normalized)
		if err != nil {
			return Condition{}, newValidationError(InvalidValueShape, rule.Field, key,
				"Invalid value for '%s' on field '%s': %s.", key, rule.Field, err.Error())
		}
		normalized = date
	}
	return Condition{Field: rule.Field, Operator: op, Value: normalized}, nil
}

func applyValueRule(rule FieldRule, spec OperatorSpec, value interface{}) error {
	switch spec.Shape {
	case ShapeScalar:
		if value == nil {
			return nil
		}
		return rule.Rule(value)
	case ShapeArray:
		for _, item := range value.([]interface{}) {
			if err := rule.Rule(item); err != nil {
				return err
			}
		}
	}
	return nil
}

// sortedOperators orders registered operators by registry position and puts
// unknown keys after them, alphabetically.
func sortedOperators(ops map[string]interface{}) []string {
	keys := make([]string, 0, len(ops))
	for k := range ops {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := Operator(keys[i]).rank(), Operator(keys[j]).rank()
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}
