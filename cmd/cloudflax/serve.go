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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudflax/cloudflax/api"
	"github.com/cloudflax/cloudflax/database"
	"github.com/cloudflax/cloudflax/modules"
)

func newServeCommand(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			apiModules, err := modules.APIModules(modules.Options{
				RulesFile:   cfg.Query.RulesFile,
				MaxPageSize: cfg.Query.MaxPageSize,
			})
			if err != nil {
				return err
			}

			if _, err := database.InitDB(ctx, &cfg.Database); err != nil {
				return err
			}
			defer func() {
				if err := database.CloseDB(); err != nil {
					log.WithError(err).Warn("failed to close database")
				}
			}()

			handler := api.NewRouter(api.RouterConfig{
				Modules:        apiModules,
				Health:         database.GetHealthStatus,
				RequestTimeout: cfg.Server.RequestTimeout,
			})
			server := &http.Server{
				Addr:         cfg.Server.Addr(),
				Handler:      handler,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Infof("listening on %s", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
