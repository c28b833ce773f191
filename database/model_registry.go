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

package database

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// SQLModel is a table owned by the application. Instance returns a Bun model
// pointer; Priority orders table creation, lower first.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// Index is a secondary index created by the index migration.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// IndexedModel is implemented by models that declare secondary indexes,
// typically on the columns they are filtered and sorted by.
type IndexedModel interface {
	SQLModel
	Indexes() []Index
}

// ModelRegistry stores SQL models in a deterministic order.
type ModelRegistry struct {
	models []SQLModel
	mutex  sync.RWMutex
}

func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{}
}

// Register adds models, skipping any whose instance type is already present.
func (r *ModelRegistry) Register(models ...SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, model := range models {
		if r.contains(model) {
			continue
		}
		r.models = append(r.models, model)
	}
}

func (r *ModelRegistry) contains(model SQLModel) bool {
	t := reflect.TypeOf(model.Instance())
	for _, m := range r.models {
		if reflect.TypeOf(m.Instance()) == t {
			return true
		}
	}
	return false
}

// Models returns the registered models sorted by ascending priority.
func (r *ModelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

func (r *ModelRegistry) Instances() []interface{} {
	models := r.Models()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

type modelAdapter struct {
	instance interface{}
	priority int
	indexes  []Index
}

// NewModel wraps a Bun model pointer into an SQLModel.
func NewModel(instance interface{}, priority int, indexes ...Index) IndexedModel {
	return &modelAdapter{instance: instance, priority: priority, indexes: indexes}
}

func (a *modelAdapter) Instance() interface{} { return a.instance }

func (a *modelAdapter) Priority() int { return a.priority }

func (a *modelAdapter) Indexes() []Index { return a.indexes }

// RegisterModel adds models to the default registry.
func RegisterModel(models ...SQLModel) {
	defaultRegistry.Register(models...)
}

func RegisteredModelInstances() []interface{} {
	return defaultRegistry.Instances()
}
