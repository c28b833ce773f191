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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudflax/cloudflax/types"
)

func TestValidateFiltersUnknownField(t *testing.T) {
	_, err := ValidateFilters(types.JsonObject{"password": "x"}, widgetResource())
	failure := requireKinds(t, err, UnknownField)
	assert.Equal(t, "password", failure.Errors[0].Field)
	assert.Equal(t, "The field 'password' is not allowed.", failure.Errors[0].Message)
}

func TestValidateFiltersUnknownOperator(t *testing.T) {
	raw := types.JsonObject{
		"status": map[string]interface{}{"like": "act"},
		"name":   map[string]interface{}{"regex": "^a"},
	}
	_, err := ValidateFilters(raw, widgetResource())
	failure := requireKinds(t, err, UnknownOperator, UnknownOperator)
	assert.Equal(t, "regex", failure.Errors[0].Operator)
	assert.Equal(t, "like", failure.Errors[1].Operator)
}

func TestValidateFiltersCollectsEveryViolation(t *testing.T) {
	raw := types.JsonObject{
		"password":   "x",
		"status":     map[string]interface{}{"eq": "archived", "gt": 1},
		"score":      map[string]interface{}{"gt": "high", "in": "1"},
		"name":       []interface{}{"a", "b"},
		"created_at": map[string]interface{}{"between": "not-a-date,2024-01-31"},
	}
	_, err := ValidateFilters(raw, widgetResource())
	requireKinds(t, err,
		UnknownField,
		InvalidValueShape, UnknownOperator,
		InvalidValueShape, InvalidValueShape,
		MalformedFilterEntry,
		InvalidValueShape,
	)
}

func TestValidateFiltersScalarShorthand(t *testing.T) {
	res := widgetResource()
	short, err := ValidateFilters(types.JsonObject{"status": "active"}, res)
	require.NoError(t, err)
	long, err := ValidateFilters(types.JsonObject{"status": map[string]interface{}{"eq": "active"}}, res)
	require.NoError(t, err)

	assert.Equal(t, long.Conditions(), short.Conditions())
	assert.Equal(t, []Condition{{Field: "status", Operator: OpEq, Value: "active"}}, short.Conditions())
	assert.Equal(t, "active", short.Filters[0].Raw)
}

func TestValidateFiltersOrdering(t *testing.T) {
	raw := types.JsonObject{
		"score": map[string]interface{}{"lte": 10, "gte": "2", "ne": 5},
		"name":  map[string]interface{}{"like": "a"},
	}
	set, err := ValidateFilters(raw, widgetResource())
	require.NoError(t, err)
	assert.Equal(t, []Condition{
		{Field: "name", Operator: OpLike, Value: "a"},
		{Field: "score", Operator: OpNe, Value: int64(5)},
		{Field: "score", Operator: OpGte, Value: int64(2)},
		{Field: "score", Operator: OpLte, Value: int64(10)},
	}, set.Conditions())
}

func TestValidateFiltersValueRules(t *testing.T) {
	res := widgetResource()

	_, err := ValidateFilters(types.JsonObject{"status": map[string]interface{}{"in": []interface{}{"active", "gone"}}}, res)
	failure := requireKinds(t, err, InvalidValueShape)
	assert.Contains(t, failure.Errors[0].Message, "must be one of: active, inactive")

	set, err := ValidateFilters(types.JsonObject{"owner_id": nil}, res)
	require.NoError(t, err)
	assert.Nil(t, set.Conditions()[0].Value)

	set, err = ValidateFilters(types.JsonObject{"created_at": map[string]interface{}{"between": "2024-01-01,2024-01-31"}}, res)
	require.NoError(t, err)
	assert.IsType(t, DateRange{}, set.Conditions()[0].Value)
}

func TestValidateFiltersEmpty(t *testing.T) {
	set, err := ValidateFilters(nil, widgetResource())
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())

	_, err = ValidateFilters(types.JsonObject{"name": map[string]interface{}{}}, widgetResource())
	requireKinds(t, err, MalformedFilterEntry)
}

func TestNewFieldRuleRejectsUnregisteredOperator(t *testing.T) {
	_, err := NewFieldRule("name", StringValue, OpEq, Operator("contains"))
	failure := requireKinds(t, err, InvalidOperator)
	assert.Equal(t, "contains", failure.Errors[0].Operator)

	assert.Panics(t, func() { MustFieldRule("name", nil, Operator("contains")) })
}

func TestResourceOverrideOnUnknownFieldPanics(t *testing.T) {
	assert.Panics(t, func() {
		widgetResource().Override("nope", nil)
	})
}
