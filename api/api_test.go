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

package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/cloudflax/cloudflax"
	"github.com/cloudflax/cloudflax/api"
	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/modules/project"
	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/repository"
)

type envelope struct {
	Data []project.Project `json:"data"`
	Meta api.PageMeta      `json:"meta"`
}

type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func newServer(t *testing.T) (*httptest.Server, repository.Repository[project.Project]) {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.NewCreateTable().Model((*project.Project)(nil)).Exec(context.Background())
	require.NoError(t, err)

	repo := repository.NewRepository[project.Project](db)
	svc := cloudflax.NewServiceWithRepository[project.Project](repo, project.NewResource(), query.Options{MaxPageSize: 50})
	handler := api.NewCrudHandler[project.Project, project.Input]("Project", svc)

	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Modules: []api.Module{{Pattern: "/projects", Routes: handler.Routes}},
		Health: func(ctx context.Context) *database.HealthStatus {
			return &database.HealthStatus{Healthy: true}
		},
	}))
	t.Cleanup(srv.Close)
	return srv, repo
}

func do(t *testing.T, method string, url string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestProjectLifecycle(t *testing.T) {
	srv, _ := newServer(t)
	base := srv.URL + "/api/projects"
	owner := uuid.NewString()

	resp := do(t, http.MethodPost, base, map[string]interface{}{
		"name": "apollo", "owner_id": owner, "status": "active", "description": "moon",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created project.Project
	decode(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "apollo", created.Name)

	resp = do(t, http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodPut, base+"/"+created.ID, map[string]interface{}{
		"name": "artemis", "owner_id": owner, "status": "inactive",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated project.Project
	decode(t, resp, &updated)
	assert.Equal(t, "artemis", updated.Name)
	assert.Equal(t, "", updated.Description)
	assert.Equal(t, created.ID, updated.ID)

	resp = do(t, http.MethodDelete, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, base+"/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body errorBody
	decode(t, resp, &body)
	assert.Equal(t, "Project not found", body.Message)

	resp = do(t, http.MethodDelete, base+"/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = do(t, http.MethodPut, base+"/"+created.ID, map[string]interface{}{
		"name": "ghost", "owner_id": owner, "status": "active",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexEnvelope(t *testing.T) {
	srv, repo := newServer(t)
	owner := uuid.NewString()
	for i := 1; i <= 7; i++ {
		require.NoError(t, repo.Create(context.Background(), &project.Project{
			Name: fmt.Sprintf("project-%d", i), OwnerID: owner,
		}))
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/projects?filters[name][like]=project&sort=name:asc&per_page=3&page=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var env envelope
	decode(t, resp, &env)
	assert.Equal(t, api.PageMeta{CurrentPage: 3, PerPage: 3, Total: 7, LastPage: 3}, env.Meta)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "project-7", env.Data[0].Name)

	resp = do(t, http.MethodGet, srv.URL+"/api/projects?filters[name][eq]=none", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env = envelope{}
	decode(t, resp, &env)
	assert.Empty(t, env.Data)
	assert.NotNil(t, env.Data)
	assert.Equal(t, api.PageMeta{CurrentPage: 1, PerPage: 15, Total: 0, LastPage: 1}, env.Meta)
}

func TestIndexValidationEnvelope(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/projects?filters[secret]=1&filters[name][gt]=3&sort=name:up&per_page=500", nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Message string `json:"message"`
		Errors  []struct {
			Kind     string `json:"kind"`
			Field    string `json:"field"`
			Operator string `json:"operator"`
		} `json:"errors"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "The given data was invalid.", body.Message)

	kinds := make([]string, len(body.Errors))
	for i, e := range body.Errors {
		kinds[i] = e.Kind
	}
	assert.ElementsMatch(t, []string{"unknown_operator", "unknown_field", "unknown_sort_direction", "invalid_page"}, kinds)
}

func TestStoreValidation(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/projects", map[string]interface{}{"name": ""})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, resp, &body)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "owner_id")
	assert.Contains(t, body.Errors, "status")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/projects", bytes.NewBufferString("{"))
	require.NoError(t, err)
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestRouterFallbacks(t *testing.T) {
	srv, _ := newServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
