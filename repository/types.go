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

package repository

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/types"
)

// CrudRepository defines basic CRUD operations for a generic entity type.
type CrudRepository[T any] interface {
	GetOne(ctx context.Context, id any) (*T, error)

	GetAll(ctx context.Context) ([]*T, error)

	Create(ctx context.Context, entity ...*T) error

	Update(ctx context.Context, entity *T) error

	// Delete removes the entity with the given id and reports sql.ErrNoRows
	// when nothing was deleted.
	Delete(ctx context.Context, id any) error
}

// SearchRepository lists entities through compiled list criteria.
type SearchRepository[T any] interface {
	// Search returns the page of entities matching c, ordered by its sort.
	Search(ctx context.Context, c *query.Criteria) (*types.PageResult[T], error)

	// DeleteMatching removes every entity matching the filters of c and
	// returns the number of deleted rows.
	DeleteMatching(ctx context.Context, c *query.Criteria) (int64, error)
}

// Repository combines CRUD and search operations and exposes Bun query
// builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	SearchRepository[T]

	// WithTx returns a repository bound to tx.
	WithTx(tx bun.Tx) Repository[T]
	RunInTx(ctx context.Context, fn func(ctx context.Context, repo Repository[T]) error) error

	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
