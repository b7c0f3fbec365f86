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

package saiclient

import "fmt"

// ObjectID is the opaque handle of one hardware object. The object type is
// encoded in the top byte, the remaining bytes carry a per-type sequence
// number. The orchestration plugins treat OIDs as opaque and only hand them
// back to the client that issued them.
type ObjectID uint64

// NullObjectID is never assigned to an object.
const NullObjectID ObjectID = 0

// Type extracts the object type from the OID.
func (oid ObjectID) Type() ObjectType {
	return ObjectType(oid >> 56)
}

// String renders the OID the way the ASIC state database keys it.
func (oid ObjectID) String() string {
	return fmt.Sprintf("oid:%#x", uint64(oid))
}

// ObjectType enumerates the hardware object types the client can create.
// The numbering follows the SAI object type enum.
type ObjectType int

const (
	// ObjectTypeNull is the type of NullObjectID.
	ObjectTypeNull ObjectType = 0

	// ObjectTypePort is a physical port.
	ObjectTypePort ObjectType = 1

	// ObjectTypeAclTable is an ACL table.
	ObjectTypeAclTable ObjectType = 7

	// ObjectTypeAclEntry is a single ACL rule entry.
	ObjectTypeAclEntry ObjectType = 8

	// ObjectTypeAclCounter counts hits of one ACL entry.
	ObjectTypeAclCounter ObjectType = 9

	// ObjectTypeAclTableGroup aggregates the ACL tables attached to one
	// bind point at one stage.
	ObjectTypeAclTableGroup ObjectType = 11

	// ObjectTypeAclTableGroupMember attaches one ACL table to a group.
	ObjectTypeAclTableGroupMember ObjectType = 12

	// ObjectTypeSwitch is the switch itself.
	ObjectTypeSwitch ObjectType = 33
)

// String returns the conventional SAI name of the object type.
func (t ObjectType) String() string {
	switch t {
	case ObjectTypeNull:
		return "SAI_OBJECT_TYPE_NULL"
	case ObjectTypePort:
		return "SAI_OBJECT_TYPE_PORT"
	case ObjectTypeAclTable:
		return "SAI_OBJECT_TYPE_ACL_TABLE"
	case ObjectTypeAclEntry:
		return "SAI_OBJECT_TYPE_ACL_ENTRY"
	case ObjectTypeAclCounter:
		return "SAI_OBJECT_TYPE_ACL_COUNTER"
	case ObjectTypeAclTableGroup:
		return "SAI_OBJECT_TYPE_ACL_TABLE_GROUP"
	case ObjectTypeAclTableGroupMember:
		return "SAI_OBJECT_TYPE_ACL_TABLE_GROUP_MEMBER"
	case ObjectTypeSwitch:
		return "SAI_OBJECT_TYPE_SWITCH"
	}
	return "SAI_OBJECT_TYPE_INVALID"
}

// AclTableAttrs are the creation attributes of an ACL table.
type AclTableAttrs struct {
	// Stage is the pipeline point, INGRESS or EGRESS.
	Stage string

	// BindPoints lists the bind point types the table accepts.
	BindPoints []string

	// MatchFields lists the match fields rules of the table may use.
	MatchFields []string

	// Actions lists the actions rules of the table may use.
	Actions []string
}

// AclEntryAttrs are the creation attributes of an ACL entry.
type AclEntryAttrs struct {
	// Priority orders the entry within its table.
	Priority uint32

	// Matches maps match field names to their configured values.
	Matches map[string]string

	// Actions maps action names to their configured values.
	Actions map[string]string

	// CounterOID optionally attaches a hit counter to the entry.
	CounterOID ObjectID
}

// PortAPI creates and removes hardware ports.
type PortAPI interface {
	// CreatePort creates the hardware port for the given front-panel alias.
	CreatePort(alias string) (ObjectID, error)

	// RemovePort removes a port created by CreatePort.
	RemovePort(oid ObjectID) error
}

// AclAPI programs ACL objects. All OID arguments must have been issued by
// the same client; unknown or mistyped OIDs are rejected with an error.
type AclAPI interface {
	// CreateAclTable creates an ACL table.
	CreateAclTable(attrs AclTableAttrs) (ObjectID, error)

	// RemoveAclTable removes an empty ACL table. Fails while entries,
	// counters or group members still reference it.
	RemoveAclTable(oid ObjectID) error

	// CreateAclTableGroup creates an ACL table group for one bind point
	// at the given stage.
	CreateAclTableGroup(stage string) (ObjectID, error)

	// RemoveAclTableGroup removes an ACL table group. Fails while
	// members still reference it.
	RemoveAclTableGroup(oid ObjectID) error

	// CreateAclTableGroupMember attaches a table to a group.
	CreateAclTableGroupMember(group, table ObjectID, priority uint32) (ObjectID, error)

	// RemoveAclTableGroupMember detaches a table from a group.
	RemoveAclTableGroupMember(oid ObjectID) error

	// CreateAclEntry creates a rule entry in the given table.
	CreateAclEntry(table ObjectID, attrs AclEntryAttrs) (ObjectID, error)

	// RemoveAclEntry removes a rule entry.
	RemoveAclEntry(oid ObjectID) error

	// CreateAclCounter creates a hit counter owned by the given table.
	CreateAclCounter(table ObjectID) (ObjectID, error)

	// RemoveAclCounter removes a hit counter.
	RemoveAclCounter(oid ObjectID) error

	// BindAclTableToSwitch attaches a table to the switch-wide group of
	// the given stage, creating the group on first use. Returns the
	// group member representing the attachment.
	BindAclTableToSwitch(table ObjectID, stage string) (ObjectID, error)

	// UnbindAclTableFromSwitch removes a member created by
	// BindAclTableToSwitch.
	UnbindAclTableFromSwitch(member ObjectID) error
}

// CounterAPI reads ACL hit counters.
type CounterAPI interface {
	// ReadAclCounter returns the packet and byte counts of a counter.
	ReadAclCounter(oid ObjectID) (packets, bytes uint64, err error)
}
