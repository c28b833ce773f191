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
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cloudflax/cloudflax/utils"
)

// RequestLogger logs one line per request with the request fields the JSON
// log formatter lifts to the top level. 5xx are logged as errors, 4xx as
// warnings.
func RequestLogger(log *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				utils.FieldClientIP:    r.RemoteAddr,
				utils.FieldMethod:      r.Method,
				utils.FieldPath:        r.URL.RequestURI(),
				utils.FieldStatusCode:  status,
				utils.FieldLatencyTime: time.Since(start).String(),
				"request_id":           chimiddleware.GetReqID(r.Context()),
				"bytes":                ww.BytesWritten(),
			})
			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("request completed")
			case status >= http.StatusBadRequest:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
		})
	}
}

// Recovery turns a panic into a 500 ErrorEnvelope.
func Recovery(log *utils.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					log.WithFields(logrus.Fields{
						"error":           fmt.Sprint(rvr),
						"stack":           string(debug.Stack()),
						utils.FieldPath:   r.URL.Path,
						utils.FieldMethod: r.Method,
					}).Error("panic recovered")
					writeJSON(w, http.StatusInternalServerError, ErrorEnvelope{Message: "Server Error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
