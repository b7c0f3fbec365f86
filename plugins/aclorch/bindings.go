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
	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch/acl"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/portsorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
)

// bindPortLocked attaches a table to a port. Each (port, stage) pair owns
// one ACL group, created on first use; the table is attached as a group
// member and the binding recorded in the engine.
func (p *Plugin) bindPortLocked(table *acl.Table, port portsorch.Port) {
	key := groupKey{port: port.Alias, stage: table.Stage}
	group, exists := p.portGroups[key]
	if !exists {
		oid, err := p.Sai.CreateAclTableGroup(table.Stage.String())
		if err != nil {
			p.Log.Errorf("Failed to create ACL group for port %s: %v", port.Alias, err)
			return
		}
		group = &portGroup{oid: oid}
		p.portGroups[key] = group
	}
	member, err := p.Sai.CreateAclTableGroupMember(group.oid,
		saiclient.ObjectID(table.SaiID()), groupMemberPriority)
	if err != nil {
		p.Log.Errorf("Failed to attach ACL table %s to the group of port %s: %v",
			table.ID, port.Alias, err)
		if group.members == 0 {
			if removeErr := p.Sai.RemoveAclTableGroup(group.oid); removeErr == nil {
				delete(p.portGroups, key)
			}
		}
		return
	}
	group.members++
	table.BindPort(port.Alias, uint64(port.OID), uint64(member))
	p.Log.Debugf("Bound ACL table %s to port %s", table.ID, port.Alias)
}

// unbindPortLocked detaches a table from a port; the port's ACL group is
// removed together with its last member. The engine decides whether the
// port goes back to pending.
func (p *Plugin) unbindPortLocked(table *acl.Table, alias string) {
	binding, bound := table.UnbindPort(alias)
	if !bound {
		return
	}
	if err := p.Sai.RemoveAclTableGroupMember(saiclient.ObjectID(binding.GroupMemberOID)); err != nil {
		p.Log.Errorf("Failed to detach ACL table %s from the group of port %s: %v",
			table.ID, alias, err)
	}
	key := groupKey{port: alias, stage: table.Stage}
	group, exists := p.portGroups[key]
	if !exists {
		return
	}
	group.members--
	if group.members > 0 {
		return
	}
	if err := p.Sai.RemoveAclTableGroup(group.oid); err != nil {
		p.Log.Errorf("Failed to remove the empty ACL group of port %s: %v", alias, err)
		return
	}
	delete(p.portGroups, key)
	p.Log.Debugf("Removed empty ACL group of port %s at %v", alias, table.Stage)
}

// bindPendingPorts reacts to a new port: every table waiting for it gets
// bound.
func (p *Plugin) bindPendingPorts(port portsorch.Port) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.tableIDsLocked() {
		table := p.tables[id]
		if !table.IsPortPending(port.Alias) {
			continue
		}
		p.bindPortLocked(table, port)
		p.publishTableStatusLocked(table)
	}
}

// unbindRemovedPort reacts to a deleted port: bound tables release their
// hardware binding and the port returns to pending, ready for a re-appear.
func (p *Plugin) unbindRemovedPort(alias string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.tableIDsLocked() {
		table := p.tables[id]
		if !table.IsPortBound(alias) {
			continue
		}
		p.unbindPortLocked(table, alias)
		p.publishTableStatusLocked(table)
	}
}
