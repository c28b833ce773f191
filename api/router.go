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
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/utils"
)

const BasePath = "/api"

var logger = utils.NewLogger("API")

// Module is a set of routes mounted under BasePath + Pattern.
type Module struct {
	Pattern string
	Routes  func(r chi.Router)
}

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Modules []Module
	// Health reports the database status on /healthz; nil disables the route.
	Health func(ctx context.Context) *database.HealthStatus
	// RequestTimeout bounds each request; zero disables it.
	RequestTimeout time.Duration
	Logger         *utils.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(Recovery(log))
	router.Use(RequestLogger(log))
	if cfg.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	if cfg.Health != nil {
		router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			status := cfg.Health(r.Context())
			code := http.StatusOK
			if !status.Healthy {
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, status)
		})
	}

	router.Route(BasePath, func(r chi.Router) {
		for _, m := range cfg.Modules {
			r.Route(m.Pattern, m.Routes)
		}
	})
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorEnvelope{Message: "Not Found"})
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorEnvelope{Message: "Method Not Allowed"})
	})
	return router
}
