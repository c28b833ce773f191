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

package team

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/types"
)

type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID          string           `bun:"id,pk,type:varchar(36)" json:"id"`
	Name        string           `bun:"name,notnull,unique,type:varchar(255)" json:"name"`
	Description string           `bun:"description,notnull,default:''" json:"description"`
	Metadata    types.JsonObject `bun:"metadata,type:text" json:"metadata"`
	CreatedAt   time.Time        `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time        `bun:"updated_at,notnull" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Team)(nil)

func (t *Team) BeforeAppendModel(ctx context.Context, q bun.Query) error {
	now := time.Now().UTC()
	switch q.(type) {
	case *bun.InsertQuery:
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
	case *bun.UpdateQuery:
		t.UpdatedAt = now
	}
	return nil
}

var Model = database.NewModel((*Team)(nil), 20,
	database.Index{Name: "idx_teams_created_at", Columns: []string{"created_at"}},
)

func NewResource() *query.Resource {
	return query.NewResource("teams",
		query.MustFieldRule("id", query.UUIDValue, query.EqualityOperators...),
		query.MustFieldRule("name", query.StringValue, query.TextOperators...),
		query.MustFieldRule("description", query.StringValue, query.TextOperators...),
		query.MustFieldRule("created_at", query.DateValue, query.DateOperators...),
		query.MustFieldRule("updated_at", query.DateValue, query.DateOperators...),
	)
}

type Input struct {
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	Metadata    types.JsonObject `json:"metadata"`
}

func (in *Input) Validate() error {
	errs := types.FieldErrors{}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > 255:
		errs.Add("name", "The name may not be greater than 255 characters.")
	}
	return errs.ErrOrNil()
}

// ApplyTo copies the input onto t. Missing metadata becomes an empty object.
func (in *Input) ApplyTo(t *Team) {
	t.Name = strings.TrimSpace(in.Name)
	t.Description = ""
	if in.Description != nil {
		t.Description = *in.Description
	}
	t.Metadata = in.Metadata
	if t.Metadata == nil {
		t.Metadata = types.JsonObject{}
	}
}
