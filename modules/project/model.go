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
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/database"
)

// Project statuses.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var Statuses = []string{StatusActive, StatusInactive}

type Project struct {
	bun.BaseModel `bun:"table:projects,alias:p"`

	ID          string    `bun:"id,pk,type:varchar(36)" json:"id"`
	Name        string    `bun:"name,notnull,type:varchar(255)" json:"name"`
	Description string    `bun:"description,notnull,default:''" json:"description"`
	OwnerID     string    `bun:"owner_id,notnull,type:varchar(36)" json:"owner_id"`
	Status      string    `bun:"status,notnull,type:varchar(16),default:'active'" json:"status"`
	CreatedAt   time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Project)(nil)

// BeforeAppendModel assigns the id and timestamps.
func (p *Project) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Status == "" {
			p.Status = StatusActive
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
	case *bun.UpdateQuery:
		p.UpdatedAt = now
	}
	return nil
}

// Model is the projects table with the indexes its filters and sorts use.
var Model = database.NewModel((*Project)(nil), 10,
	database.Index{Name: "idx_projects_status", Columns: []string{"status"}},
	database.Index{Name: "idx_projects_owner_id", Columns: []string{"owner_id"}},
	database.Index{Name: "idx_projects_created_at", Columns: []string{"created_at"}},
)
