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

package project

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cloudflax/cloudflax/types"
)

const maxNameLength = 255

// Input is the body of store and update requests.
type Input struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	OwnerID     string  `json:"owner_id"`
	Status      string  `json:"status"`
}

// Validate reports every rejected field as types.FieldErrors.
func (in *Input) Validate() error {
	errs := types.FieldErrors{}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		errs.Add("name", "The name field is required.")
	case utf8.RuneCountInString(name) > maxNameLength:
		errs.Add("name", "The name may not be greater than %d characters.", maxNameLength)
	}
	switch in.Status {
	case "":
		errs.Add("status", "The status field is required.")
	case StatusActive, StatusInactive:
	default:
		errs.Add("status", "The selected status is invalid.")
	}
	if in.OwnerID == "" {
		errs.Add("owner_id", "The owner_id field is required.")
	} else if _, err := uuid.Parse(in.OwnerID); err != nil {
		errs.Add("owner_id", "The owner_id must be a valid UUID.")
	}
	return errs.ErrOrNil()
}

// ApplyTo copies the input onto p. A nil description clears it.
func (in *Input) ApplyTo(p *Project) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = ""
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.OwnerID = in.OwnerID
	p.Status = in.Status
}
