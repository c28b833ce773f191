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
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Name      string    `bun:"name,notnull"`
	Status    string    `bun:"status,notnull"`
	Score     int       `bun:"score,notnull"`
	OwnerID   *string   `bun:"owner_id"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func widgetResource() *Resource {
	return NewResource("widgets",
		MustFieldRule("name", StringValue, TextOperators...),
		MustFieldRule("status", OneOf("active", "inactive"), EqualityOperators...),
		MustFieldRule("score", NumericValue, NumericOperators...),
		MustFieldRule("owner_id", AnyValue, OpEq, OpNe),
		MustFieldRule("created_at", DateValue, DateOperators...),
	)
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*widget)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)
	return db
}

func seedWidgets(t *testing.T, db *bun.DB, widgets ...*widget) {
	t.Helper()
	if len(widgets) == 0 {
		return
	}
	_, err := db.NewInsert().Model(&widgets).Exec(context.Background())
	require.NoError(t, err)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

// selectSQL renders a widget select after fn has been applied to it.
func selectSQL(t *testing.T, db *bun.DB, fn func(q *bun.SelectQuery) *bun.SelectQuery) string {
	t.Helper()
	return fn(db.NewSelect().Model((*widget)(nil))).String()
}

func requireKinds(t *testing.T, err error, kinds ...ErrorKind) *ValidationFailure {
	t.Helper()
	require.Error(t, err)
	failure, ok := AsValidationFailure(err)
	require.True(t, ok, "expected a validation failure, got %T: %v", err, err)
	require.ElementsMatch(t, kinds, failure.Kinds())
	return failure
}
