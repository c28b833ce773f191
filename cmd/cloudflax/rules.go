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
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudflax/cloudflax/modules"
	"github.com/cloudflax/cloudflax/query"
)

func newRulesCommand(load loader) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Check a rules file and print the effective filter rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Query.RulesFile
			}
			resources, err := modules.Resources(modules.Options{RulesFile: file})
			if err != nil {
				return err
			}
			printRules(cmd.OutOrStdout(), resources)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "rules file to check, defaults to query.rules_file")
	return cmd
}

func printRules(w io.Writer, resources map[string]*query.Resource) {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		res := resources[name]
		fmt.Fprintf(w, "%s (default sort %s)\n", name, res.DefaultSort())
		for _, field := range res.Fields() {
			rule, _ := res.Field(field)
			ops := make([]string, 0)
			for _, op := range rule.Operators() {
				ops = append(ops, string(op))
			}
			sortable := ""
			if rule.Sortable() {
				sortable = " sortable"
			}
			fmt.Fprintf(w, "  %-12s %s%s\n", field, strings.Join(ops, ","), sortable)
		}
	}
}
