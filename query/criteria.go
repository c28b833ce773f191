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

	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/types"
)

type Options struct {
	// MaxPageSize caps per_page; 0 disables the cap.
	MaxPageSize int
}

// Criteria is a list request checked against one resource and ready to be
// applied to a select query.
type Criteria struct {
	Resource *Resource
	Filters  *FilterSet
	Sort     SortSpec
	Page     types.Page

	predicate   Predicate
	maxPageSize int
}

// Compile validates filters, sort and page of req in one pass and reports
// every problem found as a single *ValidationFailure.
func Compile(req *ListRequest, res *Resource, opts Options) (*Criteria, error) {
	if req == nil {
		req = NewListRequest()
	}
	c := &Criteria{
		Resource:    res,
		Page:        req.Page,
		predicate:   Identity,
		maxPageSize: opts.MaxPageSize,
	}
	failure := &ValidationFailure{}

	filters, err := ValidateFilters(req.Filters, res)
	if err := failure.merge(err); err != nil {
		return nil, err
	}
	if err == nil {
		c.Filters = filters
		predicate, err := NewTranslator(res).Translate(filters)
		if err := failure.merge(err); err != nil {
			return nil, err
		}
		if predicate != nil {
			c.predicate = predicate
		}
	}

	if req.Sort != "" {
		spec, err := ParseSort(req.Sort, res.SortFields(), res.SortDirections())
		if err := failure.merge(err); err != nil {
			return nil, err
		}
		c.Sort = spec
	}

	if err := failure.merge(CheckPage(req.Page, opts.MaxPageSize)); err != nil {
		return nil, err
	}

	if err := failure.errOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

// Predicate returns the WHERE part alone, for update or delete queries.
func (c *Criteria) Predicate() Predicate {
	return c.predicate
}

// Apply adds the filter predicate and the order to q.
func (c *Criteria) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	q = q.ApplyQueryBuilder(c.predicate)
	return ApplySort(q, c.Resource, c.Sort)
}

// Search applies c to q and returns the requested page.
func Search[T any](ctx context.Context, q *bun.SelectQuery, c *Criteria) (*types.PageResult[T], error) {
	return PaginateMax[T](ctx, c.Apply(q), c.Page, c.maxPageSize)
}
