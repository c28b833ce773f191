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
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/cloudflax/cloudflax/query"
)

type article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Title     string    `bun:"title,notnull"`
	Views     int       `bun:"views,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

var articles = query.NewResource("articles",
	query.MustFieldRule("title", query.StringValue, query.TextOperators...),
	query.MustFieldRule("views", query.NumericValue, query.NumericOperators...),
	query.MustFieldRule("created_at", query.DateValue, query.DateOperators...),
)

func newRepo(t *testing.T) Repository[article] {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*article)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return NewRepository[article](db)
}

func seed(t *testing.T, repo Repository[article]) {
	t.Helper()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var items []*article
	for i := 0; i < 5; i++ {
		items = append(items, &article{
			Title:     fmt.Sprintf("article %d", i+1),
			Views:     (i + 1) * 10,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	require.NoError(t, repo.Create(context.Background(), items...))
}

func compile(t *testing.T, raw string) *query.Criteria {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	req, err := query.ParseListRequest(values)
	require.NoError(t, err)
	c, err := query.Compile(req, articles, query.Options{})
	require.NoError(t, err)
	return c
}

func TestCrud(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seed(t, repo)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)

	one, err := repo.GetOne(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "article 1", one.Title)

	one.Title = "renamed"
	require.NoError(t, repo.Update(ctx, one))
	one, err = repo.GetOne(ctx, one.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", one.Title)

	require.NoError(t, repo.Delete(ctx, one.ID))
	_, err = repo.GetOne(ctx, one.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(ctx, one.ID), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Update(ctx, &article{ID: 999, Title: "ghost"}), sql.ErrNoRows)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seed(t, repo)

	result, err := repo.Search(ctx, compile(t, "filters[views][gte]=20&sort=views:desc&per_page=2&page=2"))
	require.NoError(t, err)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 30, result.Items[0].Views)
	assert.Equal(t, 20, result.Items[1].Views)
	assert.False(t, result.HasMore())

	result, err = repo.Search(ctx, compile(t, ""))
	require.NoError(t, err)
	require.Len(t, result.Items, 5)
	assert.Equal(t, "article 5", result.Items[0].Title)

	_, err = repo.Search(ctx, nil)
	require.Error(t, err)
}

func TestDeleteMatching(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	seed(t, repo)

	n, err := repo.DeleteMatching(ctx, compile(t, "filters[views][lt]=30"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	boom := errors.New("boom")

	err := repo.RunInTx(ctx, func(ctx context.Context, tx Repository[article]) error {
		require.NoError(t, tx.Create(ctx, &article{Title: "draft", CreatedAt: time.Now()}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = repo.RunInTx(ctx, func(ctx context.Context, tx Repository[article]) error {
		return tx.Create(ctx, &article{Title: "published", CreatedAt: time.Now()})
	})
	require.NoError(t, err)
	all, err = repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
