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

package swssdb

import (
	"fmt"
	"strings"
)

// API defines methods provided by the database layer for use by other
// plugins.
type API interface {
	// NewBroker returns hash-table access bound to one table of one
	// database. Must not be called before Init.
	NewBroker(db DB, table string) *Broker

	// Watch subscribes <ch> to updates of the listed tables of <db>.
	// An empty table list subscribes to every table of the database.
	// The dispatcher never blocks on a subscriber: updates to a full
	// channel are logged and dropped.
	Watch(subscriber string, db DB, tables []string, ch chan<- TableUpdate) (*Subscription, error)
}

// DB identifies one of the switch state databases. The numeric values follow
// the SONiC database map and select the redis database number when the redis
// backend is in use.
type DB int

const (
	// ApplDB holds the application state handed down to the orchestration
	// daemons.
	ApplDB DB = 0

	// AsicDB mirrors the hardware object state.
	AsicDB DB = 1

	// CountersDB holds statistics.
	CountersDB DB = 2

	// ConfigDB holds the operator-facing configuration.
	ConfigDB DB = 4

	// StateDB holds operational state published by the daemons.
	StateDB DB = 6
)

// Databases lists all databases in ascending order.
func Databases() []DB {
	return []DB{ApplDB, AsicDB, CountersDB, ConfigDB, StateDB}
}

// String returns the conventional name of the database.
func (db DB) String() string {
	switch db {
	case ApplDB:
		return "APPL_DB"
	case AsicDB:
		return "ASIC_DB"
	case CountersDB:
		return "COUNTERS_DB"
	case ConfigDB:
		return "CONFIG_DB"
	case StateDB:
		return "STATE_DB"
	}
	return "INVALID"
}

// ParseDB parses a database from its conventional name, case-insensitively.
func ParseDB(name string) (DB, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "APPL_DB":
		return ApplDB, nil
	case "ASIC_DB":
		return AsicDB, nil
	case "COUNTERS_DB":
		return CountersDB, nil
	case "CONFIG_DB":
		return ConfigDB, nil
	case "STATE_DB":
		return StateDB, nil
	}
	return 0, fmt.Errorf("unknown database: %q", name)
}

// Op is the kind of a table update.
type Op int

const (
	// OpSet announces a created or overwritten entry.
	OpSet Op = iota

	// OpDel announces a removed entry.
	OpDel
)

// String returns the conventional name of the operation.
func (op Op) String() string {
	switch op {
	case OpSet:
		return "SET"
	case OpDel:
		return "DEL"
	}
	return "INVALID"
}

// TableUpdate is delivered to watchers after every successful broker write.
type TableUpdate struct {
	// DB and Table locate the written hash table.
	DB    DB
	Table string

	// Key is the entry key within the table.
	Key string

	// Op tells whether the entry was written or removed.
	Op Op

	// FieldValues carries the written entry for OpSet and is nil for OpDel.
	FieldValues map[string]string
}

// String converts TableUpdate into a human-readable string representation.
func (u TableUpdate) String() string {
	return fmt.Sprintf("%s %s %s%s%s", u.Op, u.DB, u.Table, KeySeparator, u.Key)
}
