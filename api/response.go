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

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/query"
	"github.com/cloudflax/cloudflax/types"
)

const invalidDataMessage = "The given data was invalid."

// PageMeta describes the window of a list response.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

// PageEnvelope is the body of every list response.
type PageEnvelope[T any] struct {
	Data []*T     `json:"data"`
	Meta PageMeta `json:"meta"`
}

func NewPageEnvelope[T any](result *types.PageResult[T]) PageEnvelope[T] {
	return PageEnvelope[T]{
		Data: result.Items,
		Meta: PageMeta{
			CurrentPage: result.Page,
			PerPage:     result.PageSize,
			Total:       result.Total,
			LastPage:    result.TotalPages,
		},
	}
}

// ErrorEnvelope is the body of every error response. Errors holds the
// query violations of a list request or the rejected fields of a body.
type ErrorEnvelope struct {
	Message string      `json:"message"`
	Errors  interface{} `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("failed to encode response")
	}
}

func fieldErrorList(errs types.FieldErrors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for _, f := range errs.Fields() {
		out[f] = []string{errs[f]}
	}
	return out
}

// writeError maps err to a status code and an ErrorEnvelope. notFound is the
// message used when no row matched.
func writeError(w http.ResponseWriter, r *http.Request, notFound string, err error) {
	if failure, ok := query.AsValidationFailure(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorEnvelope{Message: invalidDataMessage, Errors: failure.Errors})
		return
	}
	var fieldErrs types.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorEnvelope{Message: invalidDataMessage, Errors: fieldErrorList(fieldErrs)})
		return
	}
	if database.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, ErrorEnvelope{Message: notFound})
		return
	}
	if database.IsConstraintViolation(err) {
		_, kind := database.IsSqlError(err)
		writeJSON(w, http.StatusConflict, ErrorEnvelope{Message: "The request conflicts with existing data: " + kind.String() + "."})
		return
	}

	logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	writeJSON(w, http.StatusInternalServerError, ErrorEnvelope{Message: "Server Error"})
}
