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
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/repository"
	"github.com/cloudflax/cloudflax/types"
)

func newRepo(t *testing.T) repository.Repository[Project] {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*Project)(nil)).Exec(context.Background())
	require.NoError(t, err)
	return repository.NewRepository[Project](db)
}

func search(t *testing.T, repo repository.Repository[Project], raw string) (*types.PageResult[Project], error) {
	t.Helper()
	values, err := url.ParseQuery(raw)
	require.NoError(t, err)
	req, err := query.ParseListRequest(values)
	require.NoError(t, err)
	c, err := query.Compile(req, NewResource(), query.Options{})
	if err != nil {
		return nil, err
	}
	return repo.Search(context.Background(), c)
}

func names(result *types.PageResult[Project]) []string {
	out := make([]string, len(result.Items))
	for i, p := range result.Items {
		out[i] = p.Name
	}
	return out
}

func TestBeforeAppendModel(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	p := &Project{Name: "apollo", OwnerID: uuid.NewString()}
	require.NoError(t, repo.Create(ctx, p))
	_, err := uuid.Parse(p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)

	created := p.CreatedAt
	p.Name = "artemis"
	require.NoError(t, repo.Update(ctx, p))
	assert.Equal(t, created, p.CreatedAt)
	assert.False(t, p.UpdatedAt.Before(created))
}

func TestSearchOverride(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	owner := uuid.NewString()
	require.NoError(t, repo.Create(ctx,
		&Project{Name: "orbital", Description: "launch tooling", OwnerID: owner},
		&Project{Name: "ground", Description: "orbit tracking", OwnerID: owner, Status: StatusInactive},
		&Project{Name: "billing", Description: "invoices", OwnerID: uuid.NewString()},
	))

	result, err := search(t, repo, "filters[search]=orbit&sort=name:asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"ground", "orbital"}, names(result))

	result, err = search(t, repo, "filters[search][like]=orbit&filters[status]=inactive")
	require.NoError(t, err)
	assert.Equal(t, []string{"ground"}, names(result))

	result, err = search(t, repo, "filters[owner_id]="+owner+"&sort=name:desc")
	require.NoError(t, err)
	assert.Equal(t, []string{"orbital", "ground"}, names(result))
}

func TestResourceRejects(t *testing.T) {
	repo := newRepo(t)

	_, err := search(t, repo, "filters[status][eq]=archived&filters[owner_id]=nobody&sort=search:asc")
	failure, ok := query.AsValidationFailure(err)
	require.True(t, ok)
	assert.True(t, failure.HasKind(query.InvalidValueShape))
	assert.True(t, failure.HasKind(query.UnknownSortField))
	assert.Len(t, failure.Errors, 3)

	_, err = search(t, repo, "filters[status][like]=act")
	require.NoError(t, err)
}

func TestInputValidate(t *testing.T) {
	in := &Input{}
	err := in.Validate()
	var errs types.FieldErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{"name", "owner_id", "status"}, errs.Fields())

	in = &Input{Name: "apollo", OwnerID: "42", Status: "paused"}
	require.ErrorAs(t, in.Validate(), &errs)
	assert.Equal(t, []string{"owner_id", "status"}, errs.Fields())

	desc := "moon"
	in = &Input{Name: "  apollo ", OwnerID: uuid.NewString(), Status: StatusInactive, Description: &desc}
	require.NoError(t, in.Validate())

	p := &Project{Description: "old"}
	in.ApplyTo(p)
	assert.Equal(t, "apollo", p.Name)
	assert.Equal(t, "moon", p.Description)
	assert.Equal(t, StatusInactive, p.Status)
}
