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
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// RulesFile is the YAML form of field rules:
//
//	resources:
//	  projects:
//	    default_sort: created_at:desc
//	    fields:
//	      status:
//	        rule: enum
//	        values: [active, inactive]
//	        operators: [eq, ne, in, nin]
type RulesFile struct {
	Resources map[string]ResourceRulesConfig `yaml:"resources"`
}

type ResourceRulesConfig struct {
	DefaultSort string                     `yaml:"default_sort"`
	Fields      map[string]FieldRuleConfig `yaml:"fields"`
}

type FieldRuleConfig struct {
	Column    string   `yaml:"column"`
	Rule      string   `yaml:"rule"`
	Values    []string `yaml:"values"`
	Operators []string `yaml:"operators"`
	Sortable  *bool    `yaml:"sortable"`
}

// ValueRuleByName resolves the rule names accepted in a rules file.
func ValueRuleByName(name string, values []string) (ValueRule, error) {
	switch name {
	case "", "any":
		return AnyValue, nil
	case "string":
		return StringValue, nil
	case "numeric":
		return NumericValue, nil
	case "date":
		return DateValue, nil
	case "uuid":
		return UUIDValue, nil
	case "enum":
		if len(values) == 0 {
			return nil, fmt.Errorf("rule 'enum' needs values")
		}
		return OneOf(values...), nil
	}
	return nil, fmt.Errorf("unknown value rule '%s'", name)
}

func ParseRules(data []byte) (*RulesFile, error) {
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return &file, nil
}

func LoadRulesFile(path string) (*RulesFile, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("rules file does not exist: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// Apply returns res with its field rules replaced by the section of the same
// name. res is returned unchanged when the file has no such section.
func (f *RulesFile) Apply(res *Resource) (*Resource, error) {
	section, ok := f.Resources[res.Name()]
	if !ok {
		return res, nil
	}

	names := make([]string, 0, len(section.Fields))
	for name := range section.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	rules := make([]FieldRule, 0, len(names))
	for _, name := range names {
		cfg := section.Fields[name]
		valueRule, err := ValueRuleByName(cfg.Rule, cfg.Values)
		if err != nil {
			return nil, fmt.Errorf("resource %s field %s: %w", res.Name(), name, err)
		}
		ops := make([]Operator, len(cfg.Operators))
		for i, op := range cfg.Operators {
			ops[i] = Operator(op)
		}
		rule, err := NewFieldRule(name, valueRule, ops...)
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", res.Name(), err)
		}
		if cfg.Column != "" {
			rule = rule.WithColumn(cfg.Column)
		}
		if cfg.Sortable != nil && !*cfg.Sortable {
			rule = rule.WithoutSort()
		}
		rules = append(rules, rule)
	}

	out := res.WithFields(rules...)
	if section.DefaultSort != "" {
		spec, err := ParseSort(section.DefaultSort, out.SortFields(), out.SortDirections())
		if err != nil {
			return nil, fmt.Errorf("resource %s default_sort: %w", res.Name(), err)
		}
		out.WithDefaultSort(spec)
	}
	return out, nil
}

// ResolveResource applies the rules file at path to res. An empty path keeps
// the code-defined rules of res; a file that cannot be loaded or applied is
// an error.
func ResolveResource(path string, res *Resource) (*Resource, error) {
	if path == "" {
		return res, nil
	}
	file, err := LoadRulesFile(path)
	if err != nil {
		return nil, err
	}
	resolved, err := file.Apply(res)
	if err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	if resolved != res {
		logger.Infof("loaded rules for %s from %s", res.Name(), path)
	}
	return resolved, nil
}
