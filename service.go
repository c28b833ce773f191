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

package cloudflax

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/repository"
	"github.com/cloudflax/cloudflax/types"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// Resource returns the filter and sort rules of the entity.
	Resource() *query.Resource

	// Compile checks a list request against the entity's rules.
	Compile(req *query.ListRequest) (*query.Criteria, error)

	// Search validates req and returns the matching page.
	Search(ctx context.Context, req *query.ListRequest) (*types.PageResult[T], error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// Update modifies an existing entity.
	Update(ctx context.Context, model *T) error

	// Modify loads the entity, applies fn and saves it in one transaction.
	Modify(ctx context.Context, id any, fn func(*T) error) (*T, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// SelectBuilder returns a Bun select query builder for the entity.
	SelectBuilder() *bun.SelectQuery
}

type baseServiceImpl[T any] struct {
	repo     repository.Repository[T]
	resource *query.Resource
	options  query.Options
	once     sync.Once
}

// NewService returns a Service backed by the process wide database, which is
// resolved on first use.
func NewService[T any](resource *query.Resource, opts query.Options) Service[T] {
	return &baseServiceImpl[T]{resource: resource, options: opts}
}

// NewServiceWithRepository returns a Service backed by repo.
func NewServiceWithRepository[T any](repo repository.Repository[T], resource *query.Resource, opts query.Options) Service[T] {
	return &baseServiceImpl[T]{repo: repo, resource: resource, options: opts}
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() {
		if s.repo == nil {
			s.repo = repository.NewRepository[T](database.GetDB())
		}
	})
	return s.repo
}

func (s *baseServiceImpl[T]) Resource() *query.Resource {
	return s.resource
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetOne(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().GetAll(ctx)
}

func (s *baseServiceImpl[T]) Compile(req *query.ListRequest) (*query.Criteria, error) {
	return query.Compile(req, s.resource, s.options)
}

func (s *baseServiceImpl[T]) Search(ctx context.Context, req *query.ListRequest) (*types.PageResult[T], error) {
	c, err := s.Compile(req)
	if err != nil {
		return nil, err
	}
	return s.baseRepo().Search(ctx, c)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.baseRepo().Create(ctx, model...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T]) Modify(ctx context.Context, id any, fn func(*T) error) (*T, error) {
	var result *T
	err := s.baseRepo().RunInTx(ctx, func(ctx context.Context, repo repository.Repository[T]) error {
		entity, err := repo.GetOne(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(entity); err != nil {
			return err
		}
		if err := repo.Update(ctx, entity); err != nil {
			return err
		}
		result = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.baseRepo().Delete(ctx, id)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}
