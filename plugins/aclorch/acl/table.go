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
	"fmt"
	"sort"
)

// PortBinding holds the opaque hardware handles recorded once a port has been
// bound to a table: the OID of the port object and the OID of the ACL group
// member that attaches the table to the port's ACL group.
type PortBinding struct {
	PortOID        uint64
	GroupMemberOID uint64
}

// Table is one instantiated ACL table: a rule collection plus a per-port
// binding state machine. A port listed in the table's configuration is
// "pending" until the orchestrator has created the hardware port and
// performed the SAI bind, at which point it becomes "bound".
//
// The table is single-writer: all mutating calls must be issued sequentially
// by one reconciliation loop. Every rule mutation is validated against the
// table's type before any state is touched, so a rejected operation leaves
// the table unchanged.
type Table struct {
	// ID is the table name, unique among all tables.
	ID string

	// Type is the shared capability template the table was instantiated
	// from. It is never mutated.
	Type *TableType

	// Stage selects the pipeline point of the table.
	Stage Stage

	// Description is a free-form operator note.
	Description string

	// TableOID is the OID of the hardware table object, 0 until the
	// orchestrator has created it.
	TableOID uint64

	// BindToSwitch marks tables attached to the switch as a whole rather
	// than to individual ports.
	BindToSwitch bool

	portBindings    map[string]PortBinding
	configuredPorts PortSet
	pendingPorts    PortSet
	rules           map[string]*Rule
}

// NewTable is a constructor for an empty Table.
func NewTable(id string, tableType *TableType, stage Stage) *Table {
	return &Table{
		ID:              id,
		Type:            tableType,
		Stage:           stage,
		portBindings:    make(map[string]PortBinding),
		configuredPorts: NewPortSet(),
		pendingPorts:    NewPortSet(),
		rules:           make(map[string]*Rule),
	}
}

// NewTableFromConfig builds a table from a parsed configuration entry.
// The entry must carry an ID, a type name and a stage, and the stage must be
// supported by <tableType>. All configured ports start in the pending state.
func NewTableFromConfig(cfg *TableConfig, tableType *TableType) (*Table, error) {
	if cfg.ID == "" {
		return nil, NewMissingFieldError("id")
	}
	if cfg.TypeName == "" {
		return nil, NewMissingFieldError("type")
	}
	if !cfg.HasStage() {
		return nil, NewMissingFieldError("stage")
	}
	if !tableType.SupportsStage(cfg.Stage) {
		return nil, NewUnsupportedStageError(tableType.Name(), cfg.Stage)
	}

	table := NewTable(cfg.ID, tableType, cfg.Stage)
	table.Description = cfg.Description
	for _, port := range cfg.Ports {
		table.AddConfiguredPort(port)
	}
	// A table of a switch-bindable type with no port list attaches to the
	// switch itself.
	table.BindToSwitch = tableType.SupportsBindPoint(BindPointSwitch) &&
		len(cfg.Ports) == 0
	return table, nil
}

/******************************** Port binding ********************************/

// AddConfiguredPort adds a port to the table's configuration. The port
// becomes pending unless it is already bound.
func (t *Table) AddConfiguredPort(port string) {
	t.configuredPorts.Add(port)
	if _, bound := t.portBindings[port]; !bound {
		t.pendingPorts.Add(port)
	}
}

// BindPort records the hardware binding of a port and takes it out of the
// pending set. Binding an already-bound port overwrites the recorded handles.
func (t *Table) BindPort(port string, portOID, groupMemberOID uint64) {
	t.portBindings[port] = PortBinding{
		PortOID:        portOID,
		GroupMemberOID: groupMemberOID,
	}
	t.pendingPorts.Remove(port)
}

// UnbindPort removes the recorded binding of a port and returns it. A port
// that is still configured goes back to pending; otherwise it leaves the
// table entirely. Returns false if the port was not bound.
func (t *Table) UnbindPort(port string) (PortBinding, bool) {
	binding, bound := t.portBindings[port]
	if !bound {
		return PortBinding{}, false
	}
	delete(t.portBindings, port)
	if t.configuredPorts.Has(port) {
		t.pendingPorts.Add(port)
	}
	return binding, true
}

// RemoveConfiguredPort removes a port from the configured and pending sets.
// An existing binding is left untouched: the caller is expected to unbind
// the port first, IsPortBound tells whether that is still outstanding.
func (t *Table) RemoveConfiguredPort(port string) {
	t.configuredPorts.Remove(port)
	t.pendingPorts.Remove(port)
}

// UpdatePorts reconciles the configured port set with <ports>, applying
// AddConfiguredPort to every newly listed port and RemoveConfiguredPort to
// every port no longer listed. Both returned lists are sorted.
func (t *Table) UpdatePorts(ports []string) (added, removed []string) {
	newSet := NewPortSet(ports...)
	for _, port := range newSet.List() {
		if !t.configuredPorts.Has(port) {
			added = append(added, port)
		}
	}
	for _, port := range t.configuredPorts.List() {
		if !newSet.Has(port) {
			removed = append(removed, port)
		}
	}
	for _, port := range added {
		t.AddConfiguredPort(port)
	}
	for _, port := range removed {
		t.RemoveConfiguredPort(port)
	}
	return added, removed
}

/*********************************** Rules ************************************/

// validateRule gates every rule mutation: the rule's match and action types
// must be subsets of what the table's type supports.
func (t *Table) validateRule(rule *Rule) error {
	if err := t.Type.ValidateMatches(rule.MatchTypes()); err != nil {
		return err
	}
	if err := t.Type.ValidateActions(rule.ActionTypes()); err != nil {
		return err
	}
	return nil
}

// AddRule validates the rule against the table's type and inserts it.
// Fails without mutating the table if a match or action is unsupported or if
// the rule ID is already present.
func (t *Table) AddRule(rule *Rule) error {
	if err := t.validateRule(rule); err != nil {
		return err
	}
	if _, exists := t.rules[rule.ID]; exists {
		return NewDuplicateRuleError(t.ID, rule.ID)
	}
	t.rules[rule.ID] = rule
	return nil
}

// RemoveRule removes the rule with the given ID and returns it, or nil if no
// such rule exists.
func (t *Table) RemoveRule(id string) *Rule {
	rule, exists := t.rules[id]
	if !exists {
		return nil
	}
	delete(t.rules, id)
	return rule
}

// UpdateRule re-validates and replaces an existing rule, returning the
// previous one. Fails without mutating the table if the rule ID is unknown
// or if the replacement uses an unsupported match or action.
func (t *Table) UpdateRule(rule *Rule) (*Rule, error) {
	previous, exists := t.rules[rule.ID]
	if !exists {
		return nil, NewRuleNotFoundError(t.ID, rule.ID)
	}
	if err := t.validateRule(rule); err != nil {
		return nil, err
	}
	t.rules[rule.ID] = rule
	return previous, nil
}

// ClearRules removes all rules unconditionally.
func (t *Table) ClearRules() {
	t.rules = make(map[string]*Rule)
}

/*********************************** Queries **********************************/

// IsCreated returns true once the hardware table object exists.
func (t *Table) IsCreated() bool {
	return t.TableOID != 0
}

// SaiID returns the OID of the hardware table object, 0 if not yet created.
func (t *Table) SaiID() uint64 {
	return t.TableOID
}

// RuleCount returns the number of rules in the table.
func (t *Table) RuleCount() int {
	return len(t.rules)
}

// IsEmpty returns true if the table has no rules.
func (t *Table) IsEmpty() bool {
	return len(t.rules) == 0
}

// IsPortBound returns true if the port has a recorded hardware binding.
func (t *Table) IsPortBound(port string) bool {
	_, bound := t.portBindings[port]
	return bound
}

// IsPortConfigured returns true if the port is listed in the table's
// configuration.
func (t *Table) IsPortConfigured(port string) bool {
	return t.configuredPorts.Has(port)
}

// IsPortPending returns true if the port is configured but not yet bound.
func (t *Table) IsPortPending(port string) bool {
	return t.pendingPorts.Has(port)
}

// GetRule returns the rule with the given ID, nil if there is none.
func (t *Table) GetRule(id string) *Rule {
	rule, exists := t.rules[id]
	if !exists {
		return nil
	}
	return rule
}

// GetPortBinding returns the recorded binding of a port.
func (t *Table) GetPortBinding(port string) (PortBinding, bool) {
	binding, bound := t.portBindings[port]
	return binding, bound
}

// BoundPorts returns the sorted aliases of all bound ports.
func (t *Table) BoundPorts() []string {
	ports := make([]string, 0, len(t.portBindings))
	for port := range t.portBindings {
		ports = append(ports, port)
	}
	sort.Strings(ports)
	return ports
}

// PendingPortsList returns the sorted aliases of all ports still awaiting a
// hardware binding.
func (t *Table) PendingPortsList() []string {
	return t.pendingPorts.List()
}

// ConfiguredPortsList returns the sorted aliases of all configured ports.
func (t *Table) ConfiguredPortsList() []string {
	return t.configuredPorts.List()
}

// RuleIDs returns the sorted IDs of all rules.
func (t *Table) RuleIDs() []string {
	ids := make([]string, 0, len(t.rules))
	for id := range t.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// String converts Table (pointer) into a human-readable string
// representation.
func (t *Table) String() string {
	return fmt.Sprintf("Table %s <type: %s, stage: %s, oid: %#x, rules: %d, bound: %s, pending: %s>",
		t.ID, t.Type.Name(), t.Stage, t.TableOID, len(t.rules),
		NewPortSet(t.BoundPorts()...), t.pendingPorts)
}
