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
	"math"

	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/types"
)

// CheckPage rejects page numbers and sizes below one, sizes above maxSize
// when maxSize is positive, and windows whose offset overflows an int.
func CheckPage(page types.Page, maxSize int) error {
	failure := &ValidationFailure{}
	if page.Number < 1 {
		failure.add(InvalidPage, "page", "", "The page must be at least 1, got %d.", page.Number)
	}
	if page.Size < 1 {
		failure.add(InvalidPage, "per_page", "", "The per_page must be at least 1, got %d.", page.Size)
	} else if maxSize > 0 && page.Size > maxSize {
		failure.add(InvalidPage, "per_page", "", "The per_page may not be greater than %d.", maxSize)
	}
	if page.Number >= 1 && page.Size >= 1 && page.Number-1 > math.MaxInt/page.Size {
		failure.add(InvalidPage, "page", "", "The page %d is out of range.", page.Number)
	}
	return failure.errOrNil()
}

// Paginate counts every row matched by q, then scans the requested window.
// The count ignores the window, so Total is exact. A page past the end
// returns no items.
func Paginate[T any](ctx context.Context, q *bun.SelectQuery, page types.Page) (*types.PageResult[T], error) {
	return PaginateMax[T](ctx, q, page, 0)
}

// PaginateMax is Paginate with a cap on the page size; 0 means no cap.
func PaginateMax[T any](ctx context.Context, q *bun.SelectQuery, page types.Page, maxSize int) (*types.PageResult[T], error) {
	if err := CheckPage(page, maxSize); err != nil {
		return nil, err
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 || page.Offset() >= total {
		return types.NewPageResult[T](page, total, nil), nil
	}

	var items []*T
	if err := q.Limit(page.Limit()).Offset(page.Offset()).Scan(ctx, &items); err != nil {
		return nil, err
	}
	return types.NewPageResult(page, total, items), nil
}
