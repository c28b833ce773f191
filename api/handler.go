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
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloudflax/cloudflax"
	"github.com/cloudflax/cloudflax/query"
)

// Input is a store or update body for entities of type T.
type Input[T any] interface {
	Validate() error
	ApplyTo(entity *T)
}

// CrudHandler serves list, show, store, update and destroy for one entity.
// PI is the pointer type of the input body I.
type CrudHandler[T any, I any, PI interface {
	*I
	Input[T]
}] struct {
	name    string
	service cloudflax.Service[T]
}

// NewCrudHandler returns a handler whose not-found message names the entity
// as name, for example "Project".
func NewCrudHandler[T any, I any, PI interface {
	*I
	Input[T]
}](name string, service cloudflax.Service[T]) *CrudHandler[T, I, PI] {
	return &CrudHandler[T, I, PI]{name: name, service: service}
}

// Routes mounts the handler on r.
func (h *CrudHandler[T, I, PI]) Routes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/", h.Store)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Put("/", h.Update)
		r.Patch("/", h.Update)
		r.Delete("/", h.Destroy)
	})
}

func (h *CrudHandler[T, I, PI]) notFound() string {
	return h.name + " not found"
}

func (h *CrudHandler[T, I, PI]) Index(w http.ResponseWriter, r *http.Request) {
	req, err := query.ParseListRequest(r.URL.Query())
	if err != nil {
		writeError(w, r, h.notFound(), err)
		return
	}
	result, err := h.service.Search(r.Context(), req)
	if err != nil {
		writeError(w, r, h.notFound(), err)
		return
	}
	writeJSON(w, http.StatusOK, NewPageEnvelope(result))
}

func (h *CrudHandler[T, I, PI]) Show(w http.ResponseWriter, r *http.Request) {
	entity, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.notFound(), err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *CrudHandler[T, I, PI]) Store(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	entity := new(T)
	in.ApplyTo(entity)
	if err := h.service.Save(r.Context(), entity); err != nil {
		writeError(w, r, h.notFound(), err)
		return
	}
	writeJSON(w, http.StatusCreated, entity)
}

func (h *CrudHandler[T, I, PI]) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	entity, err := h.service.Modify(r.Context(), chi.URLParam(r, "id"), func(e *T) error {
		in.ApplyTo(e)
		return nil
	})
	if err != nil {
		writeError(w, r, h.notFound(), err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (h *CrudHandler[T, I, PI]) Destroy(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.notFound(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode reads and validates the body. It writes the error response itself.
func (h *CrudHandler[T, I, PI]) decode(w http.ResponseWriter, r *http.Request) (PI, bool) {
	in := PI(new(I))
	if err := json.NewDecoder(r.Body).Decode(in); err != nil {
		msg := "Malformed JSON body."
		if errors.Is(err, io.EOF) {
			msg = "The request body is empty."
		}
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Message: msg})
		return nil, false
	}
	if err := in.Validate(); err != nil {
		writeError(w, r, h.notFound(), err)
		return nil, false
	}
	return in, true
}
