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

package project

import (
	"strings"

	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/types"
)

// SearchField matches name or description.
const SearchField = "search"

// NewResource returns the filter and sort rules of projects.
func NewResource() *query.Resource {
	res := query.NewResource("projects",
		query.MustFieldRule("name", query.StringValue, query.TextOperators...),
		query.MustFieldRule("description", query.StringValue, query.TextOperators...),
		query.MustFieldRule("status", query.OneOf(Statuses...), query.TextOperators...),
		query.MustFieldRule("owner_id", query.UUIDValue, query.EqualityOperators...),
		query.MustFieldRule("created_at", query.DateValue, query.DateOperators...),
		query.MustFieldRule("updated_at", query.DateValue, query.DateOperators...),
		query.MustFieldRule(SearchField, query.StringValue, query.OpEq, query.OpLike).WithoutSort(),
	)
	return res.Override(SearchField, searchOverride)
}

// searchOverride ORs a LIKE on name and description. The term is the raw
// value, either a scalar or {"eq"|"like": term}.
func searchOverride(qb bun.QueryBuilder, raw interface{}) bun.QueryBuilder {
	term, ok := searchTerm(raw)
	if !ok || strings.TrimSpace(term) == "" {
		return qb
	}
	pattern := "%" + term + "%"
	return qb.WhereGroup(" AND ", func(g bun.QueryBuilder) bun.QueryBuilder {
		return g.
			Where("? LIKE ?", bun.Ident("name"), pattern).
			WhereOr("? LIKE ?", bun.Ident("description"), pattern)
	})
}

func searchTerm(raw interface{}) (string, bool) {
	var ops map[string]interface{}
	switch v := raw.(type) {
	case string:
		return v, true
	case map[string]interface{}:
		ops = v
	case types.JsonObject:
		ops = v
	default:
		return "", false
	}
	for _, key := range []string{string(query.OpLike), string(query.OpEq)} {
		if s, ok := ops[key].(string); ok {
			return s, true
		}
	}
	return "", false
}
