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

// Package query implements declarative filtering, sorting and pagination of
// list requests on top of bun select queries.
//
// A Resource declares which fields of an entity may be filtered and sorted
// and which operators apply to each. A list request is validated against it
// (ValidateFilters, ParseSort, CheckPage, or Compile for all three at once),
// translated into a Predicate joined with AND, ordered by ApplySort and
// executed by Paginate.
//
// A resource may register a FilterOverride for a field. The override replaces
// the operator translation of that field and receives the raw filter value.
package query

import "github.com/cloudflax/cloudflax/utils"

var logger = utils.NewLogger("QUERY")
