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
	"strings"

	"github.com/uptrace/bun"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

const (
	DefaultSortField = "created_at"
	// DefaultSort is the sort string a list request carries when the client
	// sends none.
	DefaultSort = DefaultSortField + ":" + string(Desc)
)

type SortTerm struct {
	Field     string
	Direction Direction
}

// SortSpec is an ordered multi-key sort; the first term is the primary key.
type SortSpec []SortTerm

func (s SortSpec) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.Field + ":" + string(t.Direction)
	}
	return strings.Join(parts, ",")
}

// ParseSort parses comma separated field:direction tokens. A token must hold
// exactly one colon. All token errors are reported together, and the terms
// keep the order in which they appear in raw. A blank raw yields an empty
// spec.
func ParseSort(raw string, allowedFields []string, allowedDirections []string) (SortSpec, error) {
	if strings.TrimSpace(raw) == "" {
		return SortSpec{}, nil
	}

	fields := toSet(allowedFields)
	directions := toSet(allowedDirections)
	failure := &ValidationFailure{}
	spec := SortSpec{}

	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		parts := strings.Split(token, ":")
		if len(parts) != 2 {
			failure.add(MalformedSortToken, "sort", "",
				"The sort token '%s' is invalid. It should be 'field:direction'.", token)
			continue
		}

		field := strings.TrimSpace(parts[0])
		direction := strings.TrimSpace(parts[1])
		ok := true
		if _, found := fields[field]; !found {
			failure.add(UnknownSortField, field, "", "The sort field '%s' is not allowed.", field)
			ok = false
		}
		if _, found := directions[direction]; !found {
			failure.add(UnknownSortDirection, field, "",
				"The sort direction '%s' is not allowed for field '%s'.", direction, field)
			ok = false
		}
		if ok {
			spec = append(spec, SortTerm{Field: field, Direction: Direction(direction)})
		}
	}

	if err := failure.errOrNil(); err != nil {
		return nil, err
	}
	return spec, nil
}

// ApplySort adds one ORDER BY per term, in order. An empty spec falls back to
// the resource default, created_at desc unless configured otherwise.
func ApplySort(q *bun.SelectQuery, res *Resource, spec SortSpec) *bun.SelectQuery {
	if len(spec) == 0 {
		spec = res.DefaultSort()
	}
	for _, term := range spec {
		expr := "? ASC"
		if term.Direction == Desc {
			expr = "? DESC"
		}
		q = q.OrderExpr(expr, bun.Ident(res.column(term.Field)))
	}
	return q
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
