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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/cloudflax/cloudflax/types"
)

const widgetRules = `
resources:
  widgets:
    default_sort: name:asc
    fields:
      name:
        rule: string
        operators: [eq, like]
      state:
        column: status
        rule: enum
        values: [active, inactive]
        operators: [eq, in]
      created_at:
        rule: date
        operators: [between]
        sortable: false
`

func TestRulesFileApply(t *testing.T) {
	file, err := ParseRules([]byte(widgetRules))
	require.NoError(t, err)

	res := widgetResource()
	res.Override("name", func(qb bun.QueryBuilder, raw interface{}) bun.QueryBuilder { return qb })
	res.Override("score", func(qb bun.QueryBuilder, raw interface{}) bun.QueryBuilder { return qb })

	out, err := file.Apply(res)
	require.NoError(t, err)
	assert.Equal(t, []string{"created_at", "name", "state"}, out.Fields())
	assert.Equal(t, []string{"name", "state"}, out.SortFields())
	assert.Equal(t, SortSpec{{Field: "name", Direction: Asc}}, out.DefaultSort())

	_, ok := out.OverrideFor("name")
	assert.True(t, ok)
	_, ok = out.OverrideFor("score")
	assert.False(t, ok)

	state, ok := out.Field("state")
	require.True(t, ok)
	assert.Equal(t, "status", state.Column)
	assert.Equal(t, []Operator{OpEq, OpIn}, state.Operators())

	_, err = ValidateFilters(types.JsonObject{"state": "archived"}, out)
	requireKinds(t, err, InvalidValueShape)

	// the code-defined resource is left as it was
	assert.Contains(t, res.Fields(), "score")
}

func TestRulesFileApplyUnknownSection(t *testing.T) {
	file, err := ParseRules([]byte(widgetRules))
	require.NoError(t, err)
	res := NewResource("gadgets")
	out, err := file.Apply(res)
	require.NoError(t, err)
	assert.Same(t, res, out)
}

func TestRulesFileRejectsBadRules(t *testing.T) {
	file, err := ParseRules([]byte("resources:\n  widgets:\n    fields:\n      name:\n        operators: [eq, regex]\n"))
	require.NoError(t, err)
	_, err = file.Apply(widgetResource())
	require.Error(t, err)
	failure, ok := AsValidationFailure(err)
	require.True(t, ok)
	assert.True(t, failure.HasKind(InvalidOperator))

	file, err = ParseRules([]byte("resources:\n  widgets:\n    fields:\n      status:\n        rule: enum\n"))
	require.NoError(t, err)
	_, err = file.Apply(widgetResource())
	assert.Error(t, err)

	_, err = ParseRules([]byte("resources: [1"))
	assert.Error(t, err)
}

func TestResolveResource(t *testing.T) {
	res := widgetResource()
	resolved, err := ResolveResource("", res)
	require.NoError(t, err)
	assert.Same(t, res, resolved)

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(widgetRules), 0o644))
	resolved, err = ResolveResource(path, res)
	require.NoError(t, err)
	assert.NotSame(t, res, resolved)
	assert.Equal(t, []string{"created_at", "name", "state"}, resolved.Fields())
}

func TestResolveResourceRejectsBrokenFile(t *testing.T) {
	res := widgetResource()

	_, err := ResolveResource(filepath.Join(t.TempDir(), "missing.yaml"), res)
	require.Error(t, err)

	dir := t.TempDir()
	unparsable := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(unparsable, []byte("resources: [\n"), 0o644))
	_, err = ResolveResource(unparsable, res)
	require.Error(t, err)

	badOperator := filepath.Join(dir, "operator.yaml")
	require.NoError(t, os.WriteFile(badOperator, []byte("resources:\n  widgets:\n    fields:\n      name:\n        rule: string\n        operators: [eq, contains]\n"), 0o644))
	_, err = ResolveResource(badOperator, res)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, InvalidOperator, verr.Kind)
	assert.Equal(t, "contains", verr.Operator)
}
