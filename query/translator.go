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

	"github.com/uptrace/bun"
)

// Predicate is a composable unit of WHERE logic. Apply it to a select with
// SelectQuery.ApplyQueryBuilder, or to update and delete queries the same way.
type Predicate func(bun.QueryBuilder) bun.QueryBuilder

// Identity leaves the query untouched.
func Identity(qb bun.QueryBuilder) bun.QueryBuilder { return qb }

// Translator turns validated filters of one resource into a predicate.
// All conditions are joined with AND; there is no OR across fields.
type Translator struct {
	res *Resource
}

func NewTranslator(res *Resource) *Translator {
	return &Translator{res: res}
}

// Translate builds the conjunction of every condition in set. A field with an
// override is handed to it with its raw value and its conditions are not
// translated. Conditions that cannot be expressed, such as a between whose
// bounds are not dates, are reported as a *ValidationFailure.
func (t *Translator) Translate(set *FilterSet) (Predicate, error) {
	if set.IsEmpty() {
		return Identity, nil
	}

	var steps []Predicate
	failure := &ValidationFailure{}
	for _, ff := range set.Filters {
		if override, ok := t.res.OverrideFor(ff.Field); ok {
			logger.Debugf("filter on %s.%s handled by override", t.res.Name(), ff.Field)
			raw := ff.Raw
			steps = append(steps, func(qb bun.QueryBuilder) bun.QueryBuilder {
				return override(qb, raw)
			})
			continue
		}

		column := t.res.column(ff.Field)
		for _, cond := range ff.Conditions {
			step, err := conditionPredicate(column, cond)
			if err != nil {
				failure.Errors = append(failure.Errors, err)
				continue
			}
			steps = append(steps, step)
		}
	}
	if err := failure.errOrNil(); err != nil {
		return nil, err
	}

	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		return qb.WhereGroup(" AND ", func(g bun.QueryBuilder) bun.QueryBuilder {
			for _, step := range steps {
				g = step(g)
			}
			return g
		})
	}, nil
}

func conditionPredicate(column string, cond Condition) (Predicate, *ValidationError) {
	spec, err := LookupOperator(string(cond.Operator))
	if err != nil {
		return nil, newValidationError(UnknownOperator, cond.Field, string(cond.Operator),
			"The operator '%s' is not allowed for field '%s'.", cond.Operator, cond.Field)
	}
	ident := bun.Ident(column)
	value := cond.Value

	switch spec.Form {
	case FormCompare:
		if value == nil {
			if !spec.Nullable {
				return nil, newValidationError(InvalidValueShape, cond.Field, string(cond.Operator),
					"Invalid value for '%s' on field '%s': must not be null.", cond.Operator, cond.Field)
			}
			expr := "? IS NULL"
			if cond.Operator == OpNe {
				expr = "? IS NOT NULL"
			}
			return where(expr, ident), nil
		}
		if r, ok := value.(DateRange); ok {
			expr := "? BETWEEN ? AND ?"
			if cond.Operator == OpNe {
				expr = "? NOT BETWEEN ? AND ?"
			}
			return where(expr, ident, r.Start, r.End), nil
		}
		return where("? "+spec.Symbol+" ?", ident, value), nil

	case FormIn, FormNotIn:
		items, ok := toSlice(value)
		if !ok || len(items) == 0 {
			return nil, newValidationError(InvalidValueShape, cond.Field, string(cond.Operator),
				"Invalid value for '%s' on field '%s': must be a non-empty array.", cond.Operator, cond.Field)
		}
		expr := "? IN (?)"
		if spec.Form == FormNotIn {
			expr = "? NOT IN (?)"
		}
		return where(expr, ident, bun.In(items)), nil

	case FormLike:
		return where("? LIKE ?", ident, fmt.Sprintf("%%%v%%", value)), nil

	case FormBetween:
		var r DateRange
		switch v := value.(type) {
		case DateRange:
			r = v
		case string:
			parsed, err := ParseDateRange(v)
			if err != nil {
				return nil, newValidationError(InvalidValueShape, cond.Field, string(cond.Operator),
					"Invalid value for '%s' on field '%s': %s.", cond.Operator, cond.Field, err.Error())
			}
			r = parsed
		default:
			return nil, newValidationError(InvalidValueShape, cond.Field, string(cond.Operator),
				`Invalid value for '%s' on field '%s': must be a string in the format "start_date,end_date".`,
				cond.Operator, cond.Field)
		}
		return where("? BETWEEN ? AND ?", ident, r.Start, r.End), nil
	}

	return nil, newValidationError(InvalidOperator, cond.Field, string(cond.Operator),
		"operator '%s' has no translation", cond.Operator)
}

func where(expr string, args ...interface{}) Predicate {
	return func(qb bun.QueryBuilder) bun.QueryBuilder {
		return qb.Where(expr, args...)
	}
}
