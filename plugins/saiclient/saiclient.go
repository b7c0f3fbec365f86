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

// Package saiclient implements the hardware programming interface as a
// virtual switch: every created object is held in memory and mirrored into
// the ASIC state database, the way a real switch driver mirrors programmed
// state. The orchestration plugins consume the narrow PortAPI, AclAPI and
// CounterAPI views of it.
package saiclient

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/logging"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

const (
	// asicStateTable is the AsicDB table mirroring every live object.
	asicStateTable = "ASIC_STATE"

	// countersTable is the CountersDB table carrying ACL counter values.
	countersTable = "COUNTERS"
)

var errMissingDep = fmt.Errorf("missing mandatory dependency")

// Plugin is the virtual switch. All methods are safe for concurrent use;
// a single mutex serializes the object state, matching the serialized
// programming channel of a hardware SDK.
type Plugin struct {
	Deps

	mu           sync.Mutex
	sequence     map[ObjectType]uint64
	objects      map[ObjectID]*object
	counters     map[ObjectID]*counterValue
	switchOID    ObjectID
	switchGroups map[string]ObjectID // stage -> switch-wide ACL group

	asicBroker     *swssdb.Broker
	countersBroker *swssdb.Broker
}

// Deps lists dependencies of the saiclient plugin.
type Deps struct {
	infra.PluginDeps

	SwssDB swssdb.API
}

// object is one virtual hardware object. refs lists the OIDs the object
// holds references to; a referenced object cannot be removed.
type object struct {
	objType ObjectType
	attrs   map[string]string
	refs    []ObjectID
}

type counterValue struct {
	packets uint64
	bytes   uint64
}

// Init creates the switch object and the database mirrors.
func (p *Plugin) Init() error {
	if p.SwssDB == nil {
		return errMissingDep
	}
	p.sequence = make(map[ObjectType]uint64)
	p.objects = make(map[ObjectID]*object)
	p.counters = make(map[ObjectID]*counterValue)
	p.switchGroups = make(map[string]ObjectID)
	p.asicBroker = p.SwssDB.NewBroker(swssdb.AsicDB, asicStateTable)
	p.countersBroker = p.SwssDB.NewBroker(swssdb.CountersDB, countersTable)

	oid, err := p.create(ObjectTypeSwitch, map[string]string{
		"init_switch": "true",
	}, nil)
	if err != nil {
		return err
	}
	p.switchOID = oid
	p.Log.Infof("Virtual switch created: %s", oid)
	return nil
}

// Close is NOOP, the object state is in memory only.
func (p *Plugin) Close() error {
	return nil
}

// SwitchOID returns the OID of the switch object.
func (p *Plugin) SwitchOID() ObjectID {
	return p.switchOID
}

// ObjectCount returns the number of live objects of the given type.
func (p *Plugin) ObjectCount(objType ObjectType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, obj := range p.objects {
		if obj.objType == objType {
			count++
		}
	}
	return count
}

/****************************** PortAPI *******************************/

// CreatePort creates the hardware port for the given front-panel alias.
func (p *Plugin) CreatePort(alias string) (ObjectID, error) {
	oid, err := p.create(ObjectTypePort, map[string]string{
		"alias": alias,
	}, nil)
	if err != nil {
		return NullObjectID, err
	}
	p.Log.WithFields(logging.Fields{"alias": alias, "oid": oid.String()}).
		Debug("Created port")
	return oid, nil
}

// RemovePort removes a port created by CreatePort.
func (p *Plugin) RemovePort(oid ObjectID) error {
	return p.remove(oid, ObjectTypePort)
}

/******************************* AclAPI *******************************/

// CreateAclTable creates an ACL table.
func (p *Plugin) CreateAclTable(attrs AclTableAttrs) (ObjectID, error) {
	oid, err := p.create(ObjectTypeAclTable, map[string]string{
		"stage":        attrs.Stage,
		"bind_points":  strings.Join(attrs.BindPoints, ","),
		"match_fields": strings.Join(attrs.MatchFields, ","),
		"actions":      strings.Join(attrs.Actions, ","),
	}, nil)
	if err != nil {
		return NullObjectID, err
	}
	p.Log.WithFields(logging.Fields{"stage": attrs.Stage, "oid": oid.String()}).
		Debug("Created ACL table")
	return oid, nil
}

// RemoveAclTable removes an ACL table. Fails while entries, counters or
// group members still reference it.
func (p *Plugin) RemoveAclTable(oid ObjectID) error {
	return p.remove(oid, ObjectTypeAclTable)
}

// CreateAclTableGroup creates an ACL table group at the given stage.
func (p *Plugin) CreateAclTableGroup(stage string) (ObjectID, error) {
	return p.create(ObjectTypeAclTableGroup, map[string]string{
		"stage": stage,
		"type":  "PARALLEL",
	}, nil)
}

// RemoveAclTableGroup removes an ACL table group. Fails while members still
// reference it.
func (p *Plugin) RemoveAclTableGroup(oid ObjectID) error {
	return p.remove(oid, ObjectTypeAclTableGroup)
}

// CreateAclTableGroupMember attaches a table to a group.
func (p *Plugin) CreateAclTableGroupMember(group, table ObjectID, priority uint32) (ObjectID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(group, ObjectTypeAclTableGroup); err != nil {
		return NullObjectID, err
	}
	if err := p.checkLocked(table, ObjectTypeAclTable); err != nil {
		return NullObjectID, err
	}
	return p.createLocked(ObjectTypeAclTableGroupMember, map[string]string{
		"group":    group.String(),
		"table":    table.String(),
		"priority": strconv.FormatUint(uint64(priority), 10),
	}, []ObjectID{group, table})
}

// RemoveAclTableGroupMember detaches a table from a group.
func (p *Plugin) RemoveAclTableGroupMember(oid ObjectID) error {
	return p.remove(oid, ObjectTypeAclTableGroupMember)
}

// CreateAclEntry creates a rule entry in the given table.
func (p *Plugin) CreateAclEntry(table ObjectID, attrs AclEntryAttrs) (ObjectID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(table, ObjectTypeAclTable); err != nil {
		return NullObjectID, err
	}
	refs := []ObjectID{table}
	recorded := map[string]string{
		"table":    table.String(),
		"priority": strconv.FormatUint(uint64(attrs.Priority), 10),
	}
	for field, value := range attrs.Matches {
		recorded["match:"+field] = value
	}
	for action, value := range attrs.Actions {
		recorded["action:"+action] = value
	}
	if attrs.CounterOID != NullObjectID {
		if err := p.checkLocked(attrs.CounterOID, ObjectTypeAclCounter); err != nil {
			return NullObjectID, err
		}
		recorded["counter"] = attrs.CounterOID.String()
		refs = append(refs, attrs.CounterOID)
	}
	return p.createLocked(ObjectTypeAclEntry, recorded, refs)
}

// RemoveAclEntry removes a rule entry.
func (p *Plugin) RemoveAclEntry(oid ObjectID) error {
	return p.remove(oid, ObjectTypeAclEntry)
}

// CreateAclCounter creates a hit counter owned by the given table.
func (p *Plugin) CreateAclCounter(table ObjectID) (ObjectID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(table, ObjectTypeAclTable); err != nil {
		return NullObjectID, err
	}
	oid, err := p.createLocked(ObjectTypeAclCounter, map[string]string{
		"table": table.String(),
	}, []ObjectID{table})
	if err != nil {
		return NullObjectID, err
	}
	p.counters[oid] = &counterValue{}
	if err := p.writeCounterLocked(oid); err != nil {
		return NullObjectID, err
	}
	return oid, nil
}

// RemoveAclCounter removes a hit counter.
func (p *Plugin) RemoveAclCounter(oid ObjectID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.removeLocked(oid, ObjectTypeAclCounter); err != nil {
		return err
	}
	delete(p.counters, oid)
	if _, err := p.countersBroker.Del(oid.String()); err != nil {
		return err
	}
	return nil
}

// BindAclTableToSwitch attaches a table to the switch-wide ACL group of the
// given stage, creating the group on first use. The group itself persists
// for the lifetime of the switch.
func (p *Plugin) BindAclTableToSwitch(table ObjectID, stage string) (ObjectID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked(table, ObjectTypeAclTable); err != nil {
		return NullObjectID, err
	}
	group, exists := p.switchGroups[stage]
	if !exists {
		created, err := p.createLocked(ObjectTypeAclTableGroup, map[string]string{
			"stage":      stage,
			"bind_point": "SWITCH",
			"type":       "PARALLEL",
		}, nil)
		if err != nil {
			return NullObjectID, err
		}
		p.switchGroups[stage] = created
		group = created
		p.Log.WithFields(logging.Fields{"stage": stage, "oid": group.String()}).
			Debug("Created switch-wide ACL group")
	}
	return p.createLocked(ObjectTypeAclTableGroupMember, map[string]string{
		"group":    group.String(),
		"table":    table.String(),
		"priority": "0",
	}, []ObjectID{group, table})
}

// UnbindAclTableFromSwitch removes a member created by BindAclTableToSwitch.
func (p *Plugin) UnbindAclTableFromSwitch(member ObjectID) error {
	return p.remove(member, ObjectTypeAclTableGroupMember)
}

/***************************** CounterAPI *****************************/

// ReadAclCounter returns the packet and byte counts of a counter.
func (p *Plugin) ReadAclCounter(oid ObjectID) (packets, bytes uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	counter, exists := p.counters[oid]
	if !exists {
		return 0, 0, NewUnknownObjectError(oid)
	}
	return counter.packets, counter.bytes, nil
}

// BumpAclCounter advances a counter, simulating matched traffic. Intended
// for tests and demos.
func (p *Plugin) BumpAclCounter(oid ObjectID, packets, bytes uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	counter, exists := p.counters[oid]
	if !exists {
		return NewUnknownObjectError(oid)
	}
	counter.packets += packets
	counter.bytes += bytes
	return p.writeCounterLocked(oid)
}

/**************************** Object state ****************************/

func (p *Plugin) allocateLocked(objType ObjectType) ObjectID {
	p.sequence[objType]++
	return ObjectID(uint64(objType)<<56 | p.sequence[objType])
}

func (p *Plugin) create(objType ObjectType, attrs map[string]string, refs []ObjectID) (ObjectID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createLocked(objType, attrs, refs)
}

func (p *Plugin) createLocked(objType ObjectType, attrs map[string]string, refs []ObjectID) (ObjectID, error) {
	oid := p.allocateLocked(objType)
	p.objects[oid] = &object{objType: objType, attrs: attrs, refs: refs}
	if err := p.asicBroker.Set(asicKey(oid), attrs); err != nil {
		delete(p.objects, oid)
		return NullObjectID, err
	}
	return oid, nil
}

func (p *Plugin) remove(oid ObjectID, expected ObjectType) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(oid, expected)
}

func (p *Plugin) removeLocked(oid ObjectID, expected ObjectType) error {
	if err := p.checkLocked(oid, expected); err != nil {
		return err
	}
	if refs := p.referencesLocked(oid); refs > 0 {
		return NewObjectInUseError(oid, refs)
	}
	if _, err := p.asicBroker.Del(asicKey(oid)); err != nil {
		return err
	}
	delete(p.objects, oid)
	return nil
}

func (p *Plugin) checkLocked(oid ObjectID, expected ObjectType) error {
	obj, exists := p.objects[oid]
	if !exists {
		return NewUnknownObjectError(oid)
	}
	if obj.objType != expected {
		return NewWrongObjectTypeError(oid, expected)
	}
	return nil
}

func (p *Plugin) referencesLocked(oid ObjectID) int {
	count := 0
	for _, obj := range p.objects {
		for _, ref := range obj.refs {
			if ref == oid {
				count++
			}
		}
	}
	return count
}

func (p *Plugin) writeCounterLocked(oid ObjectID) error {
	counter := p.counters[oid]
	return p.countersBroker.Set(oid.String(), map[string]string{
		"packets": strconv.FormatUint(counter.packets, 10),
		"bytes":   strconv.FormatUint(counter.bytes, 10),
	})
}

func asicKey(oid ObjectID) string {
	return fmt.Sprintf("%s:%s", oid.Type(), oid)
}
