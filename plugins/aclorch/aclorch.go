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

// Package aclorch reconciles the ACL configuration with the hardware.
// A single event loop consumes ACL_TABLE_TYPE, ACL_TABLE and ACL_RULE
// updates from the configuration database together with port lifecycle
// events, drives the table/rule engine of the acl sub-package, programs
// the SAI layer and publishes the resulting per-table status into the
// state database.
package aclorch

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/rpc/rest"
	"github.com/ligato/cn-infra/utils/safeclose"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch/acl"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/portsorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

const (
	// Watched ConfigDB tables.
	aclTableTypeTable = "ACL_TABLE_TYPE"
	aclTableTable     = "ACL_TABLE"
	aclRuleTable      = "ACL_RULE"

	// stateTable is the StateDB table carrying per-table status.
	stateTable = "ACL_TABLE_TABLE"

	// eventBufferSize is the size of the update and port event channels.
	eventBufferSize = 256

	// groupMemberPriority orders tables within a port's ACL group. All
	// tables share one priority, lookup is parallel.
	groupMemberPriority = 100
)

var errMissingDep = fmt.Errorf("missing mandatory dependency")

// Plugin is the ACL orchestrator. The event loop is the only writer of the
// table/rule state; the API methods serve read-only snapshots.
type Plugin struct {
	Deps

	mu     sync.RWMutex
	types  map[string]*acl.TableType
	tables map[string]*acl.Table

	pendingRules  map[string]*acl.RuleConfig
	ruleObjects   map[string]ruleObjects
	portGroups    map[groupKey]*portGroup
	switchMembers map[string]saiclient.ObjectID

	stateBroker *swssdb.Broker

	updates      chan swssdb.TableUpdate
	portEvents   chan portsorch.PortEvent
	subscription *swssdb.Subscription

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Deps lists dependencies of the aclorch plugin.
type Deps struct {
	infra.PluginDeps

	SwssDB swssdb.API
	Sai    saiclient.AclAPI
	Ports  portsorch.API

	// HTTPHandlers is optional; without it the REST API is not exposed.
	HTTPHandlers rest.HTTPHandlers
}

// ruleObjects are the hardware objects programmed for one rule.
type ruleObjects struct {
	entry   saiclient.ObjectID
	counter saiclient.ObjectID
}

// groupKey identifies the ACL group of one port at one stage.
type groupKey struct {
	port  string
	stage acl.Stage
}

// portGroup tracks the group object and how many tables are attached to it.
type portGroup struct {
	oid     saiclient.ObjectID
	members int
}

// Init replays the ACL configuration already present in the database and
// starts the event loop.
func (p *Plugin) Init() error {
	if p.SwssDB == nil || p.Sai == nil || p.Ports == nil {
		return errMissingDep
	}
	p.types = make(map[string]*acl.TableType)
	p.tables = make(map[string]*acl.Table)
	p.pendingRules = make(map[string]*acl.RuleConfig)
	p.ruleObjects = make(map[string]ruleObjects)
	p.portGroups = make(map[groupKey]*portGroup)
	p.switchMembers = make(map[string]saiclient.ObjectID)
	p.stateBroker = p.SwssDB.NewBroker(swssdb.StateDB, stateTable)
	p.updates = make(chan swssdb.TableUpdate, eventBufferSize)
	p.portEvents = make(chan portsorch.PortEvent, eventBufferSize)

	var err error
	p.subscription, err = p.SwssDB.Watch(p.String(), swssdb.ConfigDB,
		[]string{aclTableTypeTable, aclTableTable, aclRuleTable}, p.updates)
	if err != nil {
		return err
	}
	if err := p.Ports.Watch(p.String(), portsorch.ToChan(p.portEvents)); err != nil {
		return err
	}

	if err := p.resync(); err != nil {
		return err
	}

	var ctx context.Context
	ctx, p.cancel = context.WithCancel(context.Background())
	go p.watchEvents(ctx)

	return nil
}

// AfterInit registers the REST handlers.
func (p *Plugin) AfterInit() error {
	p.registerHandlers()
	return nil
}

// Close stops the event loop.
func (p *Plugin) Close() error {
	p.cancel()
	p.wg.Wait()
	return safeclose.Close(p.subscription)
}

/****************************** Event loop ******************************/

// resync replays the configuration written before the watch started, tables
// types first so that tables resolve, tables before rules. Updates racing
// with the resync are re-delivered through the subscription and applied
// idempotently.
func (p *Plugin) resync() error {
	for _, table := range []string{aclTableTypeTable, aclTableTable, aclRuleTable} {
		broker := p.SwssDB.NewBroker(swssdb.ConfigDB, table)
		keys, err := broker.Keys()
		if err != nil {
			return err
		}
		for _, key := range keys {
			fields, found, err := broker.Get(key)
			if err != nil {
				return err
			}
			if !found {
				continue
			}
			p.processUpdate(swssdb.TableUpdate{
				DB:          swssdb.ConfigDB,
				Table:       table,
				Key:         key,
				Op:          swssdb.OpSet,
				FieldValues: fields,
			})
		}
	}
	for _, port := range p.Ports.ListPorts() {
		p.processPortEvent(portsorch.PortEvent{Type: portsorch.PortAdded, Port: port})
	}
	p.Log.Info("ACL configuration resynced")
	return nil
}

func (p *Plugin) watchEvents(ctx context.Context) {
	p.wg.Add(1)
	defer p.wg.Done()

	for {
		select {
		case update := <-p.updates:
			p.processUpdate(update)

		case event := <-p.portEvents:
			p.processPortEvent(event)

		case <-ctx.Done():
			p.Log.Debug("Stop watching events")
			return
		}
	}
}

func (p *Plugin) processUpdate(update swssdb.TableUpdate) {
	switch update.Table {
	case aclTableTypeTable:
		if update.Op == swssdb.OpSet {
			p.processTableTypeSet(update.Key, update.FieldValues)
		} else {
			p.processTableTypeDel(update.Key)
		}
	case aclTableTable:
		if update.Op == swssdb.OpSet {
			p.processTableSet(update.Key, update.FieldValues)
		} else {
			p.processTableDel(update.Key)
		}
	case aclRuleTable:
		if update.Op == swssdb.OpSet {
			p.processRuleSet(update.Key, update.FieldValues)
		} else {
			p.processRuleDel(update.Key)
		}
	}
}

func (p *Plugin) processPortEvent(event portsorch.PortEvent) {
	switch event.Type {
	case portsorch.PortAdded:
		p.bindPendingPorts(event.Port)
	case portsorch.PortRemoved:
		p.unbindRemovedPort(event.Port.Alias)
	}
}

/******************************* Snapshots *******************************/

// GetTableState returns a snapshot of a single ACL table.
func (p *Plugin) GetTableState(id string) (TableState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	table, known := p.tables[id]
	if !known {
		return TableState{}, false
	}
	return p.snapshotTableLocked(table), true
}

// ListTableStates returns snapshots of all ACL tables, ordered by ID.
func (p *Plugin) ListTableStates() []TableState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	states := make([]TableState, 0, len(p.tables))
	for _, id := range p.tableIDsLocked() {
		states = append(states, p.snapshotTableLocked(p.tables[id]))
	}
	return states
}

// ListTableTypes returns all usable table types, ordered by name.
func (p *Plugin) ListTableTypes() []TableTypeState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	types := make(map[string]*acl.TableType)
	for name, tableType := range acl.BuiltinTableTypes() {
		types[name] = tableType
	}
	for name, tableType := range p.types {
		types[name] = tableType
	}
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	states := make([]TableTypeState, 0, len(names))
	for _, name := range names {
		states = append(states, snapshotTableType(types[name]))
	}
	return states
}

func (p *Plugin) tableIDsLocked() []string {
	ids := make([]string, 0, len(p.tables))
	for id := range p.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (p *Plugin) snapshotTableLocked(table *acl.Table) TableState {
	state := TableState{
		ID:           table.ID,
		Type:         table.Type.Name(),
		Stage:        table.Stage.String(),
		Description:  table.Description,
		Status:       tableStatus(table),
		OID:          saiclient.ObjectID(table.SaiID()),
		BindToSwitch: table.BindToSwitch,
		BoundPorts:   table.BoundPorts(),
		PendingPorts: table.PendingPortsList(),
	}
	for _, ruleID := range table.RuleIDs() {
		state.Rules = append(state.Rules, p.snapshotRuleLocked(table, ruleID))
	}
	return state
}

func (p *Plugin) snapshotRuleLocked(table *acl.Table, ruleID string) RuleState {
	rule := table.GetRule(ruleID)
	objects := p.ruleObjects[ruleKey(table.ID, ruleID)]
	state := RuleState{
		ID:         ruleID,
		Table:      table.ID,
		Priority:   rule.Priority,
		Matches:    make(map[string]string, len(rule.Matches)),
		Actions:    make(map[string]string, len(rule.Actions)),
		EntryOID:   objects.entry,
		CounterOID: objects.counter,
	}
	for field, value := range rule.Matches {
		state.Matches[field.String()] = value
	}
	for action, value := range rule.Actions {
		state.Actions[action.String()] = value
	}
	return state
}

func snapshotTableType(tableType *acl.TableType) TableTypeState {
	state := TableTypeState{
		Name:    tableType.Name(),
		Builtin: tableType.IsBuiltin(),
	}
	for _, bindPoint := range tableType.BindPoints().List() {
		state.BindPoints = append(state.BindPoints, bindPoint.String())
	}
	for _, match := range tableType.Matches().List() {
		state.Matches = append(state.Matches, match.String())
	}
	for _, action := range tableType.Actions().List() {
		state.Actions = append(state.Actions, action.String())
	}
	for _, stage := range tableType.Stages().List() {
		state.Stages = append(state.Stages, stage.String())
	}
	return state
}

func tableStatus(table *acl.Table) string {
	if table.IsCreated() && len(table.PendingPortsList()) == 0 {
		return StatusActive
	}
	return StatusPending
}
