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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/types"
)

func translate(t *testing.T, res *Resource, raw types.JsonObject) Predicate {
	t.Helper()
	set, err := ValidateFilters(raw, res)
	require.NoError(t, err)
	predicate, err := NewTranslator(res).Translate(set)
	require.NoError(t, err)
	return predicate
}

func TestTranslateOperators(t *testing.T) {
	db := newTestDB(t)
	res := widgetResource()

	tests := []struct {
		name string
		raw  types.JsonObject
		want []string
	}{
		{"eq", types.JsonObject{"status": map[string]interface{}{"eq": "active"}}, []string{`"status" = 'active'`}},
		{"ne", types.JsonObject{"status": map[string]interface{}{"ne": "active"}}, []string{`"status" != 'active'`}},
		{"eq null", types.JsonObject{"owner_id": nil}, []string{`"owner_id" IS NULL`}},
		{"ne null", types.JsonObject{"owner_id": map[string]interface{}{"ne": nil}}, []string{`"owner_id" IS NOT NULL`}},
		{"comparisons", types.JsonObject{"score": map[string]interface{}{"gt": 1, "gte": 2, "lt": 9, "lte": "8"}},
			[]string{`"score" > 1`, `"score" >= 2`, `"score" < 9`, `"score" <= 8`}},
		{"in", types.JsonObject{"status": map[string]interface{}{"in": []interface{}{"active", "inactive"}}},
			[]string{`"status" IN ('active', 'inactive')`}},
		{"nin", types.JsonObject{"score": map[string]interface{}{"nin": []interface{}{1, 2}}},
			[]string{`"score" NOT IN (1, 2)`}},
		{"like", types.JsonObject{"name": map[string]interface{}{"like": "gad"}}, []string{`"name" LIKE '%gad%'`}},
		{"between", types.JsonObject{"created_at": map[string]interface{}{"between": "2024-01-01,2024-01-31"}},
			[]string{`"created_at" BETWEEN '2024-01-01 00:00:00`, `AND '2024-01-31 23:59:59.999999`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predicate := translate(t, res, tt.raw)
			sql := selectSQL(t, db, func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.ApplyQueryBuilder(predicate)
			})
			for _, fragment := range tt.want {
				assert.Contains(t, sql, fragment)
			}
		})
	}
}

func TestTranslateJoinsWithAnd(t *testing.T) {
	db := newTestDB(t)
	predicate := translate(t, widgetResource(), types.JsonObject{
		"status": "active",
		"score":  map[string]interface{}{"gt": 3},
	})
	sql := selectSQL(t, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident("id"), 1).ApplyQueryBuilder(predicate)
	})
	assert.Contains(t, sql, `WHERE ("id" = 1) AND (("score" > 3) AND ("status" = 'active'))`)
	assert.NotContains(t, sql, " OR ")
}

func TestTranslateScalarShorthandIsEquality(t *testing.T) {
	db := newTestDB(t)
	res := widgetResource()
	short := translate(t, res, types.JsonObject{"status": "active"})
	long := translate(t, res, types.JsonObject{"status": map[string]interface{}{"eq": "active"}})

	render := func(p Predicate) string {
		return selectSQL(t, db, func(q *bun.SelectQuery) *bun.SelectQuery { return q.ApplyQueryBuilder(p) })
	}
	assert.Equal(t, render(long), render(short))
}

func TestTranslateEmptySetLeavesQueryUntouched(t *testing.T) {
	db := newTestDB(t)
	predicate, err := NewTranslator(widgetResource()).Translate(&FilterSet{})
	require.NoError(t, err)
	sql := selectSQL(t, db, func(q *bun.SelectQuery) *bun.SelectQuery { return q.ApplyQueryBuilder(predicate) })
	assert.NotContains(t, sql, "WHERE")
}

func TestTranslateOverrideReceivesRawValue(t *testing.T) {
	db := newTestDB(t)
	res := widgetResource()

	var calls int
	var received interface{}
	res.Override("name", func(qb bun.QueryBuilder, raw interface{}) bun.QueryBuilder {
		calls++
		received = raw
		return qb.WhereGroup(" AND ", func(g bun.QueryBuilder) bun.QueryBuilder {
			return g.Where("? LIKE ?", bun.Ident("name"), "x%").WhereOr("? LIKE ?", bun.Ident("status"), "x%")
		})
	})

	raw := map[string]interface{}{"like": "x", "eq": "y"}
	predicate := translate(t, res, types.JsonObject{"name": raw, "score": 4})
	sql := selectSQL(t, db, func(q *bun.SelectQuery) *bun.SelectQuery { return q.ApplyQueryBuilder(predicate) })

	assert.Equal(t, 1, calls)
	assert.Equal(t, raw, received)
	assert.Contains(t, sql, `(("name" LIKE 'x%') OR ("status" LIKE 'x%')) AND ("score" = 4)`)
	assert.Contains(t, sql, `"score" = 4`)
	assert.NotContains(t, sql, `'%x%'`)
	assert.NotContains(t, sql, `'y'`)
}

func TestTranslateRejectsUnparseableBetween(t *testing.T) {
	set := &FilterSet{Filters: []FieldFilter{{
		Field:      "created_at",
		Conditions: []Condition{{Field: "created_at", Operator: OpBetween, Value: "yesterday,today"}},
	}}}
	_, err := NewTranslator(widgetResource()).Translate(set)
	requireKinds(t, err, InvalidValueShape)
}

func TestBetweenIncludesBothFullDays(t *testing.T) {
	db := newTestDB(t)
	seedWidgets(t, db,
		&widget{Name: "before", Status: "active", CreatedAt: day("2023-12-31 23:59")},
		&widget{Name: "first", Status: "active", CreatedAt: day("2024-01-01 00:00")},
		&widget{Name: "middle", Status: "active", CreatedAt: day("2024-01-15 12:00")},
		&widget{Name: "last", Status: "active", CreatedAt: day("2024-01-31 23:59")},
		&widget{Name: "after", Status: "active", CreatedAt: day("2024-02-01 00:00")},
	)

	predicate := translate(t, widgetResource(), types.JsonObject{
		"created_at": map[string]interface{}{"between": "2024-01-01,2024-01-31"},
	})
	var rows []widget
	err := db.NewSelect().Model(&rows).ApplyQueryBuilder(predicate).Order("id").Scan(context.Background())
	require.NoError(t, err)

	names := make([]string, len(rows))
	for i, row := range rows {
		names[i] = row.Name
	}
	assert.Equal(t, []string{"first", "middle", "last"}, names)
}

func TestDateEqualityMatchesWholeDay(t *testing.T) {
	db := newTestDB(t)
	seedWidgets(t, db,
		&widget{Name: "early", Status: "active", CreatedAt: day("2024-01-15 00:00")},
		&widget{Name: "noon", Status: "active", CreatedAt: day("2024-01-15 12:00")},
		&widget{Name: "next", Status: "active", CreatedAt: day("2024-01-16 09:30")},
	)
	names := func(raw types.JsonObject) []string {
		var rows []widget
		err := db.NewSelect().Model(&rows).ApplyQueryBuilder(translate(t, widgetResource(), raw)).Order("id").Scan(context.Background())
		require.NoError(t, err)
		out := make([]string, len(rows))
		for i, row := range rows {
			out[i] = row.Name
		}
		return out
	}

	assert.Equal(t, []string{"early", "noon"}, names(types.JsonObject{"created_at": "2024-01-15"}))
	assert.Equal(t, []string{"next"}, names(types.JsonObject{"created_at": map[string]interface{}{"ne": "2024-01-15"}}))
	assert.Equal(t, []string{"noon"}, names(types.JsonObject{"created_at": map[string]interface{}{"eq": "2024-01-15 12:00:00"}}))
}

func TestDateEqualitySQL(t *testing.T) {
	db := newTestDB(t)
	sql := selectSQL(t, db, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.ApplyQueryBuilder(translate(t, widgetResource(), types.JsonObject{
			"created_at": map[string]interface{}{"ne": "2024/01/15"},
		}))
	})
	assert.Contains(t, sql, `"created_at" NOT BETWEEN '2024-01-15 00:00:00`)
	assert.Contains(t, sql, `AND '2024-01-15 23:59:59.999999`)

	set, err := ValidateFilters(types.JsonObject{"created_at": map[string]interface{}{"eq": "2024-01-15T08:30:00Z"}}, widgetResource())
	require.NoError(t, err)
	conditions := set.Conditions()
	require.Len(t, conditions, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC), conditions[0].Value)

	_, err = ValidateFilters(types.JsonObject{"name": "2024-01-15"}, widgetResource())
	require.NoError(t, err)
}
