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

// Names of the built-in table types.
const (
	// TableTypeL3 matches on IPv4 n-tuples and forwards/drops/redirects.
	TableTypeL3 = "L3"

	// TableTypeL3V6 is the IPv6 counterpart of L3.
	TableTypeL3V6 = "L3V6"

	// TableTypeMirror matches on the full L2-L4 + tunnel vocabulary and
	// mirrors matched traffic to a mirror session.
	TableTypeMirror = "MIRROR"

	// TableTypePFCWD is used by the PFC watchdog to drop traffic of a storm
	// traffic class; the only built-in type bindable to the switch.
	TableTypePFCWD = "PFCWD"

	// TableTypeDrop implements per-TC ingress drops.
	TableTypeDrop = "DROP"

	// TableTypeCtrlPlane filters traffic punted to the control plane.
	TableTypeCtrlPlane = "CTRLPLANE"
)

// TableType is an immutable capability template constraining which match
// fields, actions, bind points and stages a table instantiated from it may
// use. Instances are shared by pointer across all tables of that type and
// must never be mutated after construction.
type TableType struct {
	name       string
	bindPoints BindPointSet
	matches    MatchSet
	actions    ActionSet
	stages     StageSet
	builtin    bool
}

// Name returns the name of the table type.
func (tt *TableType) Name() string {
	return tt.name
}

// IsBuiltin returns true for the table types constructed at startup, false
// for types defined through configuration.
func (tt *TableType) IsBuiltin() bool {
	return tt.builtin
}

// SupportsBindPoint returns true if tables of this type can be bound to the
// given bind point type.
func (tt *TableType) SupportsBindPoint(bindPoint BindPointType) bool {
	return tt.bindPoints.Has(bindPoint)
}

// SupportsMatch returns true if rules in tables of this type can match on the
// given field.
func (tt *TableType) SupportsMatch(field MatchField) bool {
	return tt.matches.Has(field)
}

// SupportsAction returns true if rules in tables of this type can apply the
// given action.
func (tt *TableType) SupportsAction(action ActionType) bool {
	return tt.actions.Has(action)
}

// SupportsStage returns true if tables of this type can be instantiated at
// the given stage. An empty stage set means no restriction.
func (tt *TableType) SupportsStage(stage Stage) bool {
	if len(tt.stages) == 0 {
		return true
	}
	return tt.stages.Has(stage)
}

// ValidateMatches checks that every member of <fields> is supported,
// failing on the first one that is not.
func (tt *TableType) ValidateMatches(fields MatchSet) error {
	for _, field := range fields.List() {
		if !tt.SupportsMatch(field) {
			return NewUnsupportedMatchError(tt.name, field)
		}
	}
	return nil
}

// ValidateActions checks that every member of <actions> is supported,
// failing on the first one that is not.
func (tt *TableType) ValidateActions(actions ActionSet) error {
	for _, action := range actions.List() {
		if !tt.SupportsAction(action) {
			return NewUnsupportedActionError(tt.name, action)
		}
	}
	return nil
}

// BindPoints returns a copy of the supported bind point set.
func (tt *TableType) BindPoints() BindPointSet {
	return tt.bindPoints.Copy()
}

// Matches returns a copy of the supported match field set.
func (tt *TableType) Matches() MatchSet {
	return tt.matches.Copy()
}

// Actions returns a copy of the supported action set.
func (tt *TableType) Actions() ActionSet {
	return tt.actions.Copy()
}

// Stages returns a copy of the stage restriction set. An empty set means the
// type is usable at both stages.
func (tt *TableType) Stages() StageSet {
	return tt.stages.Copy()
}

// String converts TableType (pointer) into a human-readable string
// representation.
func (tt *TableType) String() string {
	return fmt.Sprintf("TableType %s <bindPoints: %s, matches: %s, actions: %s, stages: %s>",
		tt.name, tt.bindPoints, tt.matches, tt.actions, tt.stages)
}

// TableTypeBuilder accumulates the capability sets of a new table type.
// The zero builder is not usable, use NewTableTypeBuilder.
type TableTypeBuilder struct {
	name       string
	bindPoints BindPointSet
	matches    MatchSet
	actions    ActionSet
	stages     StageSet
	builtin    bool
}

// NewTableTypeBuilder is a constructor for TableTypeBuilder.
func NewTableTypeBuilder() *TableTypeBuilder {
	return &TableTypeBuilder{
		bindPoints: NewBindPointSet(),
		matches:    NewMatchSet(),
		actions:    NewActionSet(),
		stages:     NewStageSet(),
	}
}

// WithName sets the name of the table type.
func (b *TableTypeBuilder) WithName(name string) *TableTypeBuilder {
	b.name = name
	return b
}

// WithBindPoint adds a supported bind point type.
func (b *TableTypeBuilder) WithBindPoint(bindPoint BindPointType) *TableTypeBuilder {
	b.bindPoints.Add(bindPoint)
	return b
}

// WithMatch adds a supported match field.
func (b *TableTypeBuilder) WithMatch(field MatchField) *TableTypeBuilder {
	b.matches.Add(field)
	return b
}

// WithMatches adds all members of <fields> as supported match fields.
func (b *TableTypeBuilder) WithMatches(fields MatchSet) *TableTypeBuilder {
	b.matches.Join(fields)
	return b
}

// WithAction adds a supported action.
func (b *TableTypeBuilder) WithAction(action ActionType) *TableTypeBuilder {
	b.actions.Add(action)
	return b
}

// WithActions adds all members of <actions> as supported actions.
func (b *TableTypeBuilder) WithActions(actions ActionSet) *TableTypeBuilder {
	b.actions.Join(actions)
	return b
}

// WithStage restricts the table type to the given stage. Types built without
// any stage restriction support both stages.
func (b *TableTypeBuilder) WithStage(stage Stage) *TableTypeBuilder {
	b.stages.Add(stage)
	return b
}

// Builtin marks the table type as one of the built-in templates.
func (b *TableTypeBuilder) Builtin() *TableTypeBuilder {
	b.builtin = true
	return b
}

// Build verifies minimal well-formedness of the accumulated template and
// produces the immutable TableType. It fails if the name is unset, if no bind
// point was added, or if neither matches nor actions were added.
func (b *TableTypeBuilder) Build() (*TableType, error) {
	if b.name == "" {
		return nil, NewIncompleteTypeError("name is not set")
	}
	if len(b.bindPoints) == 0 {
		return nil, NewIncompleteTypeError(
			fmt.Sprintf("table type %s has no bind points", b.name))
	}
	if len(b.matches) == 0 && len(b.actions) == 0 {
		return nil, NewIncompleteTypeError(
			fmt.Sprintf("table type %s has neither matches nor actions", b.name))
	}
	return &TableType{
		name:       b.name,
		bindPoints: b.bindPoints.Copy(),
		matches:    b.matches.Copy(),
		actions:    b.actions.Copy(),
		stages:     b.stages.Copy(),
		builtin:    b.builtin,
	}, nil
}

// The built-in table types are constructed exactly once. Their definitions
// are compile-time constants, so a build failure here is a packaging defect,
// not a runtime condition - hence the panic in mustBuild.
var builtinTableTypes map[string]*TableType

// BuiltinTableType returns the built-in table type of the given name.
func BuiltinTableType(name string) (*TableType, bool) {
	tableType, known := builtinTableTypes[name]
	return tableType, known
}

// BuiltinTableTypes returns the registry of built-in table types. The map is
// a fresh copy, the TableType instances are the shared ones.
func BuiltinTableTypes() map[string]*TableType {
	registry := make(map[string]*TableType, len(builtinTableTypes))
	for name, tableType := range builtinTableTypes {
		registry[name] = tableType
	}
	return registry
}

func init() {
	builtinTableTypes = map[string]*TableType{
		TableTypeL3:        newL3TableType(),
		TableTypeL3V6:      newL3V6TableType(),
		TableTypeMirror:    newMirrorTableType(),
		TableTypePFCWD:     newPFCWDTableType(),
		TableTypeDrop:      newDropTableType(),
		TableTypeCtrlPlane: newCtrlPlaneTableType(),
	}
}

func mustBuild(builder *TableTypeBuilder) *TableType {
	tableType, err := builder.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build builtin ACL table type: %v", err))
	}
	return tableType
}

// l3MatchSet returns the IPv4 n-tuple match vocabulary shared by the L3 and
// MIRROR types.
func l3MatchSet() MatchSet {
	return NewMatchSet(
		MatchInPorts, MatchOutPorts,
		MatchSrcIP, MatchDstIP,
		MatchEtherType, MatchVlanID,
		MatchIPType, MatchIPProtocol, MatchDSCP, MatchTC,
		MatchTCPFlags,
		MatchL4SrcPort, MatchL4DstPort,
		MatchL4SrcPortRange, MatchL4DstPortRange,
		MatchICMPType, MatchICMPCode,
		MatchMetaData,
	)
}

// l3V6MatchSet is l3MatchSet with the IPv4-only fields replaced by their
// IPv6 counterparts.
func l3V6MatchSet() MatchSet {
	set := l3MatchSet()
	delete(set, MatchSrcIP)
	delete(set, MatchDstIP)
	delete(set, MatchICMPType)
	delete(set, MatchICMPCode)
	set.Add(MatchSrcIPv6)
	set.Add(MatchDstIPv6)
	set.Add(MatchICMPv6Type)
	set.Add(MatchICMPv6Code)
	set.Add(MatchNextHeader)
	return set
}

func newL3TableType() *TableType {
	return mustBuild(NewTableTypeBuilder().
		WithName(TableTypeL3).
		WithBindPoint(BindPointPort).
		WithBindPoint(BindPointLag).
		WithMatches(l3MatchSet()).
		WithAction(ActionPacketAction).
		WithAction(ActionRedirect).
		WithAction(ActionCounter).
		Builtin())
}

func newL3V6TableType() *TableType {
	return mustBuild(NewTableTypeBuilder().
		WithName(TableTypeL3V6).
		WithBindPoint(BindPointPort).
		WithBindPoint(BindPointLag).
		WithMatches(l3V6MatchSet()).
		WithAction(ActionPacketAction).
		WithAction(ActionRedirect).
		WithAction(ActionCounter).
		Builtin())
}

func newMirrorTableType() *TableType {
	return mustBuild(NewTableTypeBuilder().
		WithName(TableTypeMirror).
		WithBindPoint(BindPointPort).
		WithBindPoint(BindPointLag).
		WithMatches(l3MatchSet()).
		WithMatches(l3V6MatchSet()).
		WithMatch(MatchSrcMAC).
		WithMatch(MatchDstMAC).
		WithMatch(MatchTunnelVNI).
		WithMatch(MatchInnerEtherType).
		WithMatch(MatchInnerIPProtocol).
		WithMatch(MatchInnerL4SrcPort).
		WithMatch(MatchInnerL4DstPort).
		WithMatch(MatchInnerSrcMAC).
		WithMatch(MatchInnerDstMAC).
		WithAction(ActionMirrorIngress).
		WithAction(ActionMirrorEgress).
		WithAction(ActionCounter).
		Builtin())
}

func newPFCWDTableType() *TableType {
	return mustBuild(NewTableTypeBuilder().
		WithName(TableTypePFCWD).
		WithBindPoint(BindPointPort).
		WithBindPoint(BindPointSwitch).
		WithMatch(MatchTC).
		WithMatch(MatchInPorts).
		WithAction(ActionPacketAction).
		WithAction(ActionCounter).
		WithStage(StageIngress).
		Builtin())
}

func newDropTableType() *TableType {
	return mustBuild(NewTableTypeBuilder().
		WithName(TableTypeDrop).
		WithBindPoint(BindPointPort).
		WithBindPoint(BindPointLag).
		WithMatch(MatchTC).
		WithMatch(MatchInPorts).
		WithAction(ActionPacketAction).
		WithAction(ActionCounter).
		WithStage(StageIngress).
		Builtin())
}

func newCtrlPlaneTableType() *TableType {
	return mustBuild(NewTableTypeBuilder().
		WithName(TableTypeCtrlPlane).
		WithBindPoint(BindPointPort).
		WithBindPoint(BindPointLag).
		WithMatch(MatchSrcIP).
		WithMatch(MatchDstIP).
		WithMatch(MatchIPProtocol).
		WithMatch(MatchL4SrcPort).
		WithMatch(MatchL4DstPort).
		WithMatch(MatchEtherType).
		WithAction(ActionPacketAction).
		WithAction(ActionCounter).
		WithStage(StageIngress).
		Builtin())
}
