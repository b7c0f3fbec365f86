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

import "fmt"

// Rule is a single ACL rule. It is identified by ID within its table and
// carries a priority, a set of match specifications and a set of action
// specifications. Match and action values are kept in the string form they
// were configured with - the core validates their types against the table
// type, their values are interpreted by the SAI programming layer.
type Rule struct {
	// ID uniquely identifies the rule within its table.
	ID string

	// Priority orders the rule among the other rules of the table; higher
	// priority wins.
	Priority uint32

	// Matches maps every used match field to its configured value.
	Matches map[MatchField]string

	// Actions maps every used action to its configured value.
	Actions map[ActionType]string
}

// NewRule is a constructor for Rule with empty match and action specs.
func NewRule(id string, priority uint32) *Rule {
	return &Rule{
		ID:       id,
		Priority: priority,
		Matches:  make(map[MatchField]string),
		Actions:  make(map[ActionType]string),
	}
}

// MatchTypes returns the set of match field types used by the rule.
func (r *Rule) MatchTypes() MatchSet {
	set := NewMatchSet()
	for field := range r.Matches {
		set.Add(field)
	}
	return set
}

// ActionTypes returns the set of action types used by the rule.
func (r *Rule) ActionTypes() ActionSet {
	set := NewActionSet()
	for action := range r.Actions {
		set.Add(action)
	}
	return set
}

// Copy returns a deep copy of the rule.
func (r *Rule) Copy() *Rule {
	copied := NewRule(r.ID, r.Priority)
	for field, value := range r.Matches {
		copied.Matches[field] = value
	}
	for action, value := range r.Actions {
		copied.Actions[action] = value
	}
	return copied
}

// String converts Rule (pointer) into a human-readable string representation.
func (r *Rule) String() string {
	matches := setString(len(r.Matches), func(emit func(string)) {
		for _, field := range r.MatchTypes().List() {
			emit(fmt.Sprintf("%s: %s", field, r.Matches[field]))
		}
	})
	actions := setString(len(r.Actions), func(emit func(string)) {
		for _, action := range r.ActionTypes().List() {
			emit(fmt.Sprintf("%s: %s", action, r.Actions[action]))
		}
	})
	return fmt.Sprintf("Rule %s <priority: %d, matches: %s, actions: %s>",
		r.ID, r.Priority, matches, actions)
}
