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
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudflax/cloudflax/types"
)

const (
	ParamFilters = "filters"
	ParamSort    = "sort"
	ParamPage    = "page"
	ParamPerPage = "per_page"
)

// ListRequest carries the list parameters of one request. An empty Sort
// means the client sent none.
type ListRequest struct {
	Filters types.JsonObject
	Sort    string
	Page    types.Page
}

func NewListRequest() *ListRequest {
	return &ListRequest{
		Filters: types.JsonObject{},
		Page:    types.DefaultPage(),
	}
}

// ParseListRequest reads filters, sort, page and per_page from a query string.
// Filters may be given in bracket form:
//
//	filters[status]=active
//	filters[name][like]=api
//	filters[status][in][]=active&filters[status][in][]=inactive
//
// or as one JSON object in filters. Problems are reported together as a
// *ValidationFailure.
func ParseListRequest(values url.Values) (*ListRequest, error) {
	req := NewListRequest()
	failure := &ValidationFailure{}

	if raw := strings.TrimSpace(values.Get(ParamFilters)); raw != "" {
		decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
		decoder.UseNumber()
		var obj map[string]interface{}
		if err := decoder.Decode(&obj); err != nil {
			failure.add(MalformedFilterEntry, ParamFilters, "", "The filters parameter must be a JSON object.")
		} else {
			for k, v := range obj {
				req.Filters[k] = v
			}
		}
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		if strings.HasPrefix(key, ParamFilters+"[") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := req.setFilter(key, values[key]); err != nil {
			failure.Errors = append(failure.Errors, err)
		}
	}

	req.Sort = strings.TrimSpace(values.Get(ParamSort))

	if raw := values.Get(ParamPage); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			failure.add(InvalidPage, ParamPage, "", "The page must be an integer.")
		} else {
			req.Page.Number = n
		}
	}
	if raw := values.Get(ParamPerPage); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			failure.add(InvalidPage, ParamPerPage, "", "The per_page must be an integer.")
		} else {
			req.Page.Size = n
		}
	}

	if err := failure.errOrNil(); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *ListRequest) setFilter(key string, vals []string) *ValidationError {
	path, ok := bracketPath(strings.TrimPrefix(key, ParamFilters))
	if !ok || len(path) == 0 || path[0] == "" || len(path) > 3 {
		return newValidationError(MalformedFilterEntry, key, "", "The filter parameter '%s' is malformed.", key)
	}
	field := path[0]

	var value interface{}
	switch {
	case len(path) == 3 && path[2] == "":
		value = stringsToSlice(vals)
	case len(path) == 3:
		return newValidationError(MalformedFilterEntry, field, "", "The filter parameter '%s' is malformed.", key)
	case len(path) == 2 && path[1] == "":
		// filters[field][]=a is an array where a scalar or an operator map belongs;
		// the validator reports it.
		r.Filters[field] = stringsToSlice(vals)
		return nil
	case len(vals) == 1:
		value = vals[0]
	default:
		value = stringsToSlice(vals)
	}

	if len(path) == 1 {
		if _, exists := r.Filters[field]; exists {
			return newValidationError(MalformedFilterEntry, field, "",
				"Filter conditions for field '%s' are given more than once.", field)
		}
		r.Filters[field] = value
		return nil
	}

	op := path[1]
	existing, exists := r.Filters[field]
	if !exists {
		r.Filters[field] = map[string]interface{}{op: value}
		return nil
	}
	ops, isMap := existing.(map[string]interface{})
	if !isMap {
		return newValidationError(MalformedFilterEntry, field, "",
			"Filter conditions for field '%s' mix a scalar with operators.", field)
	}
	if _, dup := ops[op]; dup {
		return newValidationError(MalformedFilterEntry, field, op,
			"Filter operator '%s' for field '%s' is given more than once.", op, field)
	}
	ops[op] = value
	return nil
}

// bracketPath splits "[a][b][]" into a, b and "".
func bracketPath(s string) ([]string, bool) {
	var path []string
	for len(s) > 0 {
		if s[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, false
		}
		path = append(path, s[1:end])
		s = s[end+1:]
	}
	return path, true
}

func stringsToSlice(vals []string) []interface{} {
	items := make([]interface{}, len(vals))
	for i, v := range vals {
		items[i] = v
	}
	return items
}
