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
	"errors"
	"fmt"
	"strings"

	"github.com/cloudflax/cloudflax/types"
)

// ErrorKind is the machine-readable category of a query validation error.
type ErrorKind int

const (
	UnknownField ErrorKind = iota + 1
	UnknownOperator
	InvalidValueShape
	MalformedFilterEntry
	MalformedSortToken
	UnknownSortField
	UnknownSortDirection
	InvalidPage
	// InvalidOperator is raised at configuration time, when a rule names an
	// operator key that is not in the registry.
	InvalidOperator
)

var _ types.BaseEnum = UnknownField

type errorKindInfo struct {
	name string
	code string
	desc string
}

var errorKinds = map[ErrorKind]errorKindInfo{
	UnknownField:         {"UnknownField", "unknown_field", "field is not filterable for this resource"},
	UnknownOperator:      {"UnknownOperator", "unknown_operator", "operator is not allowed for this field"},
	InvalidValueShape:    {"InvalidValueShape", "invalid_value_shape", "value does not match the operator's shape"},
	MalformedFilterEntry: {"MalformedFilterEntry", "malformed_filter_entry", "filter entry is neither a scalar nor an operator map"},
	MalformedSortToken:   {"MalformedSortToken", "malformed_sort_token", "sort token is not in field:direction form"},
	UnknownSortField:     {"UnknownSortField", "unknown_sort_field", "field is not sortable for this resource"},
	UnknownSortDirection: {"UnknownSortDirection", "unknown_sort_direction", "sort direction is not allowed"},
	InvalidPage:          {"InvalidPage", "invalid_page", "page and per_page must be positive integers"},
	InvalidOperator:      {"InvalidOperator", "invalid_operator", "operator key is not registered"},
}

func (k ErrorKind) IsValid() bool {
	_, ok := errorKinds[k]
	return ok
}

func (k ErrorKind) Number() int {
	if !k.IsValid() {
		return types.IllegalValue
	}
	return int(k)
}

// String returns the snake_case code used on the wire.
func (k ErrorKind) String() string {
	if info, ok := errorKinds[k]; ok {
		return info.code
	}
	return types.IllegalName
}

func (k ErrorKind) Name() string {
	if info, ok := errorKinds[k]; ok {
		return info.name
	}
	return types.IllegalName
}

func (k ErrorKind) Desc() string {
	if info, ok := errorKinds[k]; ok {
		return info.desc
	}
	return types.IllegalDesc
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrValidation matches every ValidationError and ValidationFailure with errors.Is.
var ErrValidation = errors.New("query: validation failed")

// ValidationError is a single field-scoped input error.
type ValidationError struct {
	Kind     ErrorKind `json:"kind"`
	Field    string    `json:"field,omitempty"`
	Operator string    `json:"operator,omitempty"`
	Message  string    `json:"message"`
}

func newValidationError(kind ErrorKind, field string, operator string, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Kind:     kind,
		Field:    field,
		Operator: operator,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationFailure aggregates every error found in one request.
type ValidationFailure struct {
	Errors []*ValidationError `json:"errors"`
}

func (f *ValidationFailure) Error() string {
	if len(f.Errors) == 1 {
		return "query: " + f.Errors[0].Message
	}
	msgs := make([]string, len(f.Errors))
	for i, e := range f.Errors {
		msgs[i] = e.Message
	}
	return fmt.Sprintf("query: %d validation errors: %s", len(f.Errors), strings.Join(msgs, "; "))
}

func (f *ValidationFailure) Is(target error) bool {
	return target == ErrValidation
}

func (f *ValidationFailure) Unwrap() []error {
	errs := make([]error, len(f.Errors))
	for i, e := range f.Errors {
		errs[i] = e
	}
	return errs
}

// HasKind reports whether any collected error is of the given kind.
func (f *ValidationFailure) HasKind(kind ErrorKind) bool {
	for _, e := range f.Errors {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the kind of every collected error, in order.
func (f *ValidationFailure) Kinds() []ErrorKind {
	kinds := make([]ErrorKind, len(f.Errors))
	for i, e := range f.Errors {
		kinds[i] = e.Kind
	}
	return kinds
}

func (f *ValidationFailure) add(kind ErrorKind, field string, operator string, format string, args ...interface{}) {
	f.Errors = append(f.Errors, newValidationError(kind, field, operator, format, args...))
}

// merge folds err into f. Errors that are not validation errors are returned
// untouched so the caller can propagate them.
func (f *ValidationFailure) merge(err error) error {
	if err == nil {
		return nil
	}
	var failure *ValidationFailure
	if errors.As(err, &failure) {
		f.Errors = append(f.Errors, failure.Errors...)
		return nil
	}
	var single *ValidationError
	if errors.As(err, &single) {
		f.Errors = append(f.Errors, single)
		return nil
	}
	return err
}

func (f *ValidationFailure) errOrNil() error {
	if len(f.Errors) == 0 {
		return nil
	}
	return f
}

// AsValidationFailure unwraps err into a ValidationFailure. A lone
// ValidationError is promoted to a one-element failure.
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var failure *ValidationFailure
	if errors.As(err, &failure) {
		return failure, true
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return &ValidationFailure{Errors: []*ValidationError{single}}, true
	}
	return nil, false
}
