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
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
)

// Status values published for every ACL table into the state database.
const (
	// StatusActive means the table exists in hardware and every configured
	// port is bound.
	StatusActive = "Active"

	// StatusPending means the table still waits for hardware programming
	// or for at least one of its configured ports to appear.
	StatusPending = "Pending"
)

// API exposes read-only snapshots of the ACL state to other plugins.
// All returned values are safe copies.
type API interface {
	// GetTableState returns a snapshot of a single ACL table.
	GetTableState(id string) (TableState, bool)

	// ListTableStates returns snapshots of all ACL tables, ordered by ID.
	ListTableStates() []TableState

	// ListTableTypes returns all usable table types, built-in and
	// configured, ordered by name.
	ListTableTypes() []TableTypeState
}

// TableState is a snapshot of one ACL table.
type TableState struct {
	ID           string
	Type         string
	Stage        string
	Description  string
	Status       string
	OID          saiclient.ObjectID
	BindToSwitch bool
	BoundPorts   []string
	PendingPorts []string
	Rules        []RuleState
}

// RuleState is a snapshot of one ACL rule, including the hardware objects
// programmed for it.
type RuleState struct {
	ID         string
	Table      string
	Priority   uint32
	Matches    map[string]string
	Actions    map[string]string
	EntryOID   saiclient.ObjectID
	CounterOID saiclient.ObjectID
}

// TableTypeState is a snapshot of one table type.
type TableTypeState struct {
	Name       string
	Builtin    bool
	BindPoints []string
	Matches    []string
	Actions    []string
	Stages     []string
}
