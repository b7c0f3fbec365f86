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

package aclorch

import (
	"sort"
	"strings"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch/acl"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
)

/****************************** Table types ******************************/

// processTableTypeSet registers or redefines a custom table type. The
// definition carries comma-separated MATCHES, ACTIONS and BIND_POINTS
// fields. A type still referenced by a table cannot change underneath it.
func (p *Plugin) processTableTypeSet(name string, fields map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, builtin := acl.BuiltinTableType(name); builtin {
		p.Log.Warnf("Cannot redefine built-in ACL table type %s", name)
		return
	}
	if existing, defined := p.types[name]; defined {
		if users := p.typeUsersLocked(existing); len(users) > 0 {
			p.Log.Warnf("Rejected redefinition of ACL table type %s, still used by tables %v",
				name, users)
			return
		}
	}

	builder := acl.NewTableTypeBuilder().WithName(name)
	for field, value := range fields {
		var parseErr error
		switch strings.ToUpper(strings.TrimSpace(field)) {
		case "MATCHES":
			for _, token := range splitFieldList(value) {
				match, err := acl.ParseMatchField(token)
				if err != nil {
					parseErr = err
					break
				}
				builder.WithMatch(match)
			}
		case "ACTIONS":
			for _, token := range splitFieldList(value) {
				action, err := acl.ParseActionType(token)
				if err != nil {
					parseErr = err
					break
				}
				builder.WithAction(action)
			}
		case "BIND_POINTS":
			for _, token := range splitFieldList(value) {
				bindPoint, err := acl.ParseBindPointType(token)
				if err != nil {
					parseErr = err
					break
				}
				builder.WithBindPoint(bindPoint)
			}
		}
		if parseErr != nil {
			p.Log.Warnf("Invalid definition of ACL table type %s: %v", name, parseErr)
			return
		}
	}

	tableType, err := builder.Build()
	if err != nil {
		p.Log.Warnf("Invalid definition of ACL table type %s: %v", name, err)
		return
	}
	p.types[name] = tableType
	p.Log.Infof("Registered ACL table type %v", tableType)
}

// processTableTypeDel removes a custom table type unless a table still
// references it.
func (p *Plugin) processTableTypeDel(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, defined := p.types[name]
	if !defined {
		return
	}
	if users := p.typeUsersLocked(existing); len(users) > 0 {
		p.Log.Warnf("Cannot remove ACL table type %s, still used by tables %v", name, users)
		return
	}
	delete(p.types, name)
	p.Log.Infof("Removed ACL table type %s", name)
}

func (p *Plugin) typeUsersLocked(tableType *acl.TableType) []string {
	var users []string
	for id, table := range p.tables {
		if table.Type == tableType {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users
}

func (p *Plugin) lookupTypeLocked(name string) (*acl.TableType, bool) {
	if tableType, builtin := acl.BuiltinTableType(name); builtin {
		return tableType, true
	}
	tableType, defined := p.types[name]
	return tableType, defined
}

/******************************** Tables ********************************/

func (p *Plugin) processTableSet(id string, fields map[string]string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := acl.NewTableConfig(id)
	for field, value := range fields {
		if err := cfg.ParseField(field, value); err != nil {
			p.Log.Warnf("Invalid field %s of ACL table %s: %v", field, id, err)
			return
		}
	}
	if cfg.Unknown() > 0 {
		p.Log.Debugf("Ignored %d unknown fields of ACL table %s", cfg.Unknown(), id)
	}

	if table, known := p.tables[id]; known {
		p.updateTableLocked(table, cfg)
		return
	}
	p.createTableLocked(cfg)
}

func (p *Plugin) createTableLocked(cfg *acl.TableConfig) {
	tableType, known := p.lookupTypeLocked(cfg.TypeName)
	if !known {
		p.Log.Warnf("ACL table %s references unknown type %q, leaving unresolved",
			cfg.ID, cfg.TypeName)
		return
	}
	table, err := acl.NewTableFromConfig(cfg, tableType)
	if err != nil {
		p.Log.Warnf("Rejected ACL table %s: %v", cfg.ID, err)
		return
	}

	oid, err := p.Sai.CreateAclTable(tableAttrs(table))
	if err != nil {
		p.Log.Errorf("Failed to create ACL table %s in hardware: %v", cfg.ID, err)
		return
	}
	table.TableOID = uint64(oid)
	p.tables[table.ID] = table

	if table.BindToSwitch {
		member, err := p.Sai.BindAclTableToSwitch(oid, table.Stage.String())
		if err != nil {
			p.Log.Errorf("Failed to bind ACL table %s to the switch: %v", table.ID, err)
		} else {
			p.switchMembers[table.ID] = member
		}
	} else {
		p.bindAvailablePortsLocked(table)
	}

	p.applyPendingRulesLocked(table)
	p.publishTableStatusLocked(table)
	p.Log.Infof("Created ACL table %v", table)
}

// updateTableLocked applies an updated configuration entry to an existing
// table. The type and stage are fixed for the table's lifetime; changing
// them requires deleting and re-creating the table.
func (p *Plugin) updateTableLocked(table *acl.Table, cfg *acl.TableConfig) {
	if cfg.TypeName != table.Type.Name() {
		p.Log.Warnf("Rejected type change of ACL table %s (%s -> %s), delete and re-create the table instead",
			table.ID, table.Type.Name(), cfg.TypeName)
		return
	}
	if cfg.HasStage() && cfg.Stage != table.Stage {
		p.Log.Warnf("Rejected stage change of ACL table %s (%v -> %v), delete and re-create the table instead",
			table.ID, table.Stage, cfg.Stage)
		return
	}
	table.Description = cfg.Description

	added, removed := table.UpdatePorts(cfg.Ports)
	for _, alias := range removed {
		if table.IsPortBound(alias) {
			p.unbindPortLocked(table, alias)
		}
	}
	for _, alias := range added {
		port, exists := p.Ports.GetPortByName(alias)
		if !exists {
			continue
		}
		p.bindPortLocked(table, port)
	}
	if len(added) > 0 || len(removed) > 0 {
		p.Log.Infof("Updated ports of ACL table %s (added %v, removed %v)",
			table.ID, added, removed)
	}
	p.publishTableStatusLocked(table)
}

// processTableDel tears down a table: port bindings, rule entries, counters,
// the switch binding and finally the table object itself.
func (p *Plugin) processTableDel(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	table, known := p.tables[id]
	if !known {
		p.dropPendingRulesLocked(id)
		return
	}

	for _, alias := range table.BoundPorts() {
		p.unbindPortLocked(table, alias)
	}
	if member, bound := p.switchMembers[id]; bound {
		if err := p.Sai.UnbindAclTableFromSwitch(member); err != nil {
			p.Log.Errorf("Failed to unbind ACL table %s from the switch: %v", id, err)
		}
		delete(p.switchMembers, id)
	}
	for _, ruleID := range table.RuleIDs() {
		p.removeRuleObjectsLocked(table, ruleID)
	}
	table.ClearRules()

	if err := p.Sai.RemoveAclTable(saiclient.ObjectID(table.SaiID())); err != nil {
		p.Log.Errorf("Failed to remove ACL table %s from hardware: %v", id, err)
	}
	delete(p.tables, id)
	p.dropPendingRulesLocked(id)
	if _, err := p.stateBroker.Del(id); err != nil {
		p.Log.Warnf("Failed to withdraw status of ACL table %s: %v", id, err)
	}
	p.Log.Infof("Removed ACL table %s", id)
}

func (p *Plugin) bindAvailablePortsLocked(table *acl.Table) {
	for _, alias := range table.PendingPortsList() {
		port, exists := p.Ports.GetPortByName(alias)
		if !exists {
			continue
		}
		p.bindPortLocked(table, port)
	}
}

func (p *Plugin) publishTableStatusLocked(table *acl.Table) {
	status := map[string]string{"status": tableStatus(table)}
	if err := p.stateBroker.Set(table.ID, status); err != nil {
		p.Log.Warnf("Failed to publish status of ACL table %s: %v", table.ID, err)
	}
}

func tableAttrs(table *acl.Table) saiclient.AclTableAttrs {
	attrs := saiclient.AclTableAttrs{Stage: table.Stage.String()}
	for _, bindPoint := range table.Type.BindPoints().List() {
		attrs.BindPoints = append(attrs.BindPoints, bindPoint.String())
	}
	for _, match := range table.Type.Matches().List() {
		attrs.MatchFields = append(attrs.MatchFields, match.String())
	}
	for _, action := range table.Type.Actions().List() {
		attrs.Actions = append(attrs.Actions, action.String())
	}
	return attrs
}

// splitFieldList splits a comma-separated configuration value, dropping
// surrounding whitespace and empty items.
func splitFieldList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}
