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

package types

import "math"

// Default paging values used when a request omits page or per_page.
const (
	DefaultPageNumber = 1
	DefaultPageSize   = 15
)

// Page describes a 1-indexed page window.
type Page struct {
	Number int `json:"page"`
	Size   int `json:"per_page"`
}

// NewPage constructs a Page. Bounds are checked by the paginator, not here.
func NewPage(number int, size int) Page {
	return Page{Number: number, Size: size}
}

// DefaultPage returns the first page with the default page size.
func DefaultPage() Page {
	return Page{Number: DefaultPageNumber, Size: DefaultPageSize}
}

// Offset returns the number of rows before the window. It saturates at
// math.MaxInt instead of wrapping for very large pages.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// PageResult holds one window of items along with the aggregate counts.
type PageResult[T any] struct {
	Items      []*T `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
}

// NewPageResult builds a result for the page window; TotalPages is never below 1.
func NewPageResult[T any](page Page, total int, items []*T) *PageResult[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &PageResult[T]{
		Items:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		Total:      total,
		TotalPages: TotalPages(total, page.Size),
	}
}

// TotalPages returns ceil(total/size), with a floor of one page.
func TotalPages(total int, size int) int {
	if size < 1 || total <= 0 {
		return 1
	}
	pages := total / size
	if total%size != 0 {
		pages++
	}
	return pages
}

// HasMore reports whether pages exist after the current one.
func (r *PageResult[T]) HasMore() bool {
	return r.Page < r.TotalPages
}
