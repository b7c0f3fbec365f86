// Copyright (c) 2019 Cisco and/or its affiliates.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at:
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package acl

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TableConfig is the parsed form of one ACL table configuration entry.
// Field names are matched case-insensitively; unrecognized fields are
// counted but otherwise ignored, so that configuration written for a newer
// schema does not break older daemons.
type TableConfig struct {
	// ID is the table name, taken from the configuration key.
	ID string

	// TypeName references a built-in or configured table type.
	TypeName string

	// Stage is valid only when HasStage() returns true.
	Stage Stage

	// Description is a free-form operator note.
	Description string

	// Ports lists the aliases of the ports the table should be bound to.
	Ports []string

	stageSet bool
	unknown  int
}

// NewTableConfig is a constructor for TableConfig.
func NewTableConfig(id string) *TableConfig {
	return &TableConfig{ID: id}
}

// ParseField consumes a single field of the table configuration entry.
func (c *TableConfig) ParseField(field, value string) error {
	switch canonical(field) {
	case "TYPE":
		c.TypeName = strings.TrimSpace(value)
	case "STAGE":
		stage, err := ParseStage(value)
		if err != nil {
			return err
		}
		c.Stage = stage
		c.stageSet = true
	case "PORTS", "PORTS@":
		c.Ports = splitList(value)
	case "POLICY_DESC", "DESCRIPTION":
		c.Description = value
	default:
		c.unknown++
	}
	return nil
}

// HasStage returns true once a STAGE field has been parsed.
func (c *TableConfig) HasStage() bool {
	return c.stageSet
}

// Unknown returns the number of ignored fields, for logging.
func (c *TableConfig) Unknown() int {
	return c.unknown
}

// RuleConfig is the parsed form of one ACL rule configuration entry. Every
// field name that parses as a match field or an action type contributes to
// the rule; unrecognized fields are counted but ignored.
type RuleConfig struct {
	// Priority orders the rule within its table.
	Priority uint32

	// Matches maps parsed match fields to their configured values.
	Matches map[MatchField]string

	// Actions maps parsed action types to their configured values.
	Actions map[ActionType]string

	unknown int
}

// NewRuleConfig is a constructor for RuleConfig.
func NewRuleConfig() *RuleConfig {
	return &RuleConfig{
		Matches: make(map[MatchField]string),
		Actions: make(map[ActionType]string),
	}
}

// ParseField consumes a single field of the rule configuration entry.
// Values are kept as strings for the SAI programming layer; the two values
// the core itself gives meaning to - packet actions and metadata - are
// validated and canonicalized here.
func (c *RuleConfig) ParseField(field, value string) error {
	if canonical(field) == "PRIORITY" {
		priority, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
		if err != nil {
			return errors.Wrapf(err, "invalid ACL rule priority %q", value)
		}
		c.Priority = uint32(priority)
		return nil
	}
	if matchField, err := ParseMatchField(field); err == nil {
		if matchField == MatchMetaData {
			metadata, err := strconv.ParseUint(strings.TrimSpace(value), 10, 16)
			if err != nil {
				return errors.Wrapf(err, "invalid ACL metadata %q", value)
			}
			if _, err := NewMetaDataValue(uint16(metadata)); err != nil {
				return err
			}
		}
		c.Matches[matchField] = value
		return nil
	}
	if action, err := ParseActionType(field); err == nil {
		if action == ActionPacketAction {
			packetAction, err := ParsePacketAction(value)
			if err != nil {
				return err
			}
			value = packetAction.String()
		}
		c.Actions[action] = value
		return nil
	}
	c.unknown++
	return nil
}

// BuildRule produces the Rule accumulated by the preceding ParseField calls.
func (c *RuleConfig) BuildRule(id string) *Rule {
	rule := NewRule(id, c.Priority)
	for field, value := range c.Matches {
		rule.Matches[field] = value
	}
	for action, value := range c.Actions {
		rule.Actions[action] = value
	}
	return rule
}

// Unknown returns the number of ignored fields, for logging.
func (c *RuleConfig) Unknown() int {
	return c.unknown
}

// splitList splits a comma-separated list, trimming whitespace and dropping
// empty tokens.
func splitList(value string) []string {
	var list []string
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		list = append(list, token)
	}
	return list
}
