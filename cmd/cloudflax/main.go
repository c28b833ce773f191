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
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudflax/cloudflax/config"
	"github.com/cloudflax/cloudflax/modules"
	"github.com/cloudflax/cloudflax/utils"
)

var log = utils.NewLogger("CLOUDFLAX")

func newRootCommand() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "cloudflax",
		Short:         "Project and team API with declarative list filters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		utils.Configure(cfg.Log.Level, cfg.Log.Format, os.Stdout)
		modules.Register()
		return cfg, nil
	}

	root.AddCommand(newServeCommand(load))
	root.AddCommand(newMigrateCommand(load))
	root.AddCommand(newRulesCommand(load))
	return root
}

type loader func() (*config.Config, error)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
