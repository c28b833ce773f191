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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudflax/cloudflax/database"
)

func newMigrateCommand(load loader) *cobra.Command {
	var (
		rollback string
		status   bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, list or roll back schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			dbCfg := cfg.Database
			dbCfg.Migrate.EnableMigrateOnStartup = false

			manager, err := database.Open(cmd.Context(), &dbCfg)
			if err != nil {
				return err
			}
			defer manager.Disconnect()

			mm := database.NewMigrationManager(manager.DB(), nil).WithIndexes(cfg.Database.Migrate.EnableIndexes)
			switch {
			case rollback != "":
				return mm.RollbackMigration(cmd.Context(), rollback)
			case status:
				applied, err := mm.GetAppliedMigrations(cmd.Context())
				if err != nil {
					return err
				}
				for _, m := range applied {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			}
			return mm.RunMigrations(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&rollback, "rollback", "", "roll back the migration with this version")
	cmd.Flags().BoolVar(&status, "status", false, "list applied migrations")
	return cmd
}
