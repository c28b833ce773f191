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

// Package modules assembles the entity modules into models, services and
// HTTP routes.
package modules

import (
	"github.com/cloudflax/cloudflax"
	"github.com/cloudflax/cloudflax/api"
	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/modules/project"
	"github.com/cloudflax/cloudflax/modules/team"
	"github.com/cloudflax/cloudflax/query"
)

// Options tune the list endpoints of every module.
type Options struct {
	// RulesFile replaces code-defined field rules when set.
	RulesFile   string
	MaxPageSize int
}

// Models returns the tables owned by the modules.
func Models() []database.SQLModel {
	return []database.SQLModel{project.Model, team.Model}
}

// Register adds the module tables to the default model registry.
func Register() {
	database.RegisterModel(Models()...)
}

// Resources returns the filter rules of every module, keyed by resource name.
// It fails when opts.RulesFile is set but cannot be loaded or applied.
func Resources(opts Options) (map[string]*query.Resource, error) {
	resources := make(map[string]*query.Resource)
	for _, res := range []*query.Resource{project.NewResource(), team.NewResource()} {
		resolved, err := query.ResolveResource(opts.RulesFile, res)
		if err != nil {
			return nil, err
		}
		resources[resolved.Name()] = resolved
	}
	return resources, nil
}

// APIModules builds the HTTP routes backed by the process wide database.
func APIModules(opts Options) ([]api.Module, error) {
	resources, err := Resources(opts)
	if err != nil {
		return nil, err
	}
	qopts := query.Options{MaxPageSize: opts.MaxPageSize}

	projects := api.NewCrudHandler[project.Project, project.Input](
		"Project", cloudflax.NewService[project.Project](resources["projects"], qopts))
	teams := api.NewCrudHandler[team.Team, team.Input](
		"Team", cloudflax.NewService[team.Team](resources["teams"], qopts))

	return []api.Module{
		{Pattern: "/projects", Routes: projects.Routes},
		{Pattern: "/teams", Routes: teams.Routes},
	}, nil
}
