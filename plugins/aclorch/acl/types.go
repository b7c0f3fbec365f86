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
	"strings"
)

// Stage determines at which point of the forwarding pipeline an ACL table
// takes effect.
type Stage int

const (
	// StageIngress matches packets arriving at the bind point.
	StageIngress Stage = iota

	// StageEgress matches packets leaving the bind point.
	StageEgress
)

// String returns the canonical upper-case form of the stage.
func (s Stage) String() string {
	switch s {
	case StageIngress:
		return "INGRESS"
	case StageEgress:
		return "EGRESS"
	}
	return "INVALID"
}

// ParseStage parses a stage from its string form, case-insensitively.
func ParseStage(s string) (Stage, error) {
	switch canonical(s) {
	case "INGRESS":
		return StageIngress, nil
	case "EGRESS":
		return StageEgress, nil
	}
	return 0, fmt.Errorf("unknown ACL stage: %q", s)
}

// BindPointType is the kind of pipeline object an ACL table can be attached to.
type BindPointType int

const (
	// BindPointPort binds the table to a physical port.
	BindPointPort BindPointType = iota

	// BindPointLag binds the table to a link aggregation group.
	BindPointLag

	// BindPointVlan binds the table to a VLAN.
	BindPointVlan

	// BindPointRouterInterface binds the table to a router interface.
	BindPointRouterInterface

	// BindPointSwitch binds the table to the switch as a whole.
	BindPointSwitch
)

// String returns the canonical upper-case form of the bind point type.
func (b BindPointType) String() string {
	switch b {
	case BindPointPort:
		return "PORT"
	case BindPointLag:
		return "LAG"
	case BindPointVlan:
		return "VLAN"
	case BindPointRouterInterface:
		return "ROUTER_INTERFACE"
	case BindPointSwitch:
		return "SWITCH"
	}
	return "INVALID"
}

// ParseBindPointType parses a bind point type from its string form,
// case-insensitively. "RIF" is accepted as an alias for ROUTER_INTERFACE.
func ParseBindPointType(s string) (BindPointType, error) {
	switch canonical(s) {
	case "PORT":
		return BindPointPort, nil
	case "LAG":
		return BindPointLag, nil
	case "VLAN":
		return BindPointVlan, nil
	case "ROUTER_INTERFACE", "RIF":
		return BindPointRouterInterface, nil
	case "SWITCH":
		return BindPointSwitch, nil
	}
	return 0, fmt.Errorf("unknown ACL bind point type: %q", s)
}

// MatchField enumerates the packet header fields and metadata an ACL rule
// can match on. The set of fields usable by a concrete rule is constrained
// by the table type of the table that carries it.
type MatchField int

const (
	// MatchInPorts matches the set of ingress ports.
	MatchInPorts MatchField = iota
	// MatchOutPorts matches the set of egress ports.
	MatchOutPorts

	// L2
	// MatchSrcMAC matches the source MAC address.
	MatchSrcMAC
	// MatchDstMAC matches the destination MAC address.
	MatchDstMAC
	// MatchEtherType matches the Ethernet type field.
	MatchEtherType
	// MatchVlanID matches the outer VLAN ID.
	MatchVlanID

	// L3
	// MatchSrcIP matches the IPv4 source address.
	MatchSrcIP
	// MatchDstIP matches the IPv4 destination address.
	MatchDstIP
	// MatchSrcIPv6 matches the IPv6 source address.
	MatchSrcIPv6
	// MatchDstIPv6 matches the IPv6 destination address.
	MatchDstIPv6
	// MatchIPType matches the IP type (ANY, IP, NON_IP, ...).
	MatchIPType
	// MatchIPProtocol matches the IPv4 protocol number.
	MatchIPProtocol
	// MatchNextHeader matches the IPv6 next-header value.
	MatchNextHeader
	// MatchDSCP matches the DSCP field.
	MatchDSCP
	// MatchTC matches the internal traffic class.
	MatchTC
	// MatchTTL matches the TTL / hop-limit field.
	MatchTTL

	// L4
	// MatchTCPFlags matches TCP flags (value/mask).
	MatchTCPFlags
	// MatchL4SrcPort matches the L4 source port.
	MatchL4SrcPort
	// MatchL4DstPort matches the L4 destination port.
	MatchL4DstPort
	// MatchL4SrcPortRange matches an L4 source port range.
	MatchL4SrcPortRange
	// MatchL4DstPortRange matches an L4 destination port range.
	MatchL4DstPortRange
	// MatchICMPType matches the ICMP type.
	MatchICMPType
	// MatchICMPCode matches the ICMP code.
	MatchICMPCode
	// MatchICMPv6Type matches the ICMPv6 type.
	MatchICMPv6Type
	// MatchICMPv6Code matches the ICMPv6 code.
	MatchICMPv6Code

	// Tunnel
	// MatchTunnelVNI matches the VXLAN network identifier.
	MatchTunnelVNI
	// MatchInnerEtherType matches the Ethernet type of the inner packet.
	MatchInnerEtherType
	// MatchInnerIPProtocol matches the IP protocol of the inner packet.
	MatchInnerIPProtocol
	// MatchInnerL4SrcPort matches the L4 source port of the inner packet.
	MatchInnerL4SrcPort
	// MatchInnerL4DstPort matches the L4 destination port of the inner packet.
	MatchInnerL4DstPort
	// MatchInnerSrcMAC matches the source MAC of the inner packet.
	MatchInnerSrcMAC
	// MatchInnerDstMAC matches the destination MAC of the inner packet.
	MatchInnerDstMAC

	// Metadata
	// MatchMetaData matches the ACL metadata value attached by SetMetaData.
	MatchMetaData
	// MatchBTHOpcode matches the RoCEv2 base transport header opcode.
	MatchBTHOpcode
	// MatchAETHSyndrome matches the RoCEv2 ACK extended transport header
	// syndrome.
	MatchAETHSyndrome
)

// matchFieldNames holds the canonical upper-case form of every match field.
var matchFieldNames = map[MatchField]string{
	MatchInPorts:         "IN_PORTS",
	MatchOutPorts:        "OUT_PORTS",
	MatchSrcMAC:          "SRC_MAC",
	MatchDstMAC:          "DST_MAC",
	MatchEtherType:       "ETHER_TYPE",
	MatchVlanID:          "VLAN_ID",
	MatchSrcIP:           "SRC_IP",
	MatchDstIP:           "DST_IP",
	MatchSrcIPv6:         "SRC_IPV6",
	MatchDstIPv6:         "DST_IPV6",
	MatchIPType:          "IP_TYPE",
	MatchIPProtocol:      "IP_PROTOCOL",
	MatchNextHeader:      "NEXT_HEADER",
	MatchDSCP:            "DSCP",
	MatchTC:              "TC",
	MatchTTL:             "TTL",
	MatchTCPFlags:        "TCP_FLAGS",
	MatchL4SrcPort:       "L4_SRC_PORT",
	MatchL4DstPort:       "L4_DST_PORT",
	MatchL4SrcPortRange:  "L4_SRC_PORT_RANGE",
	MatchL4DstPortRange:  "L4_DST_PORT_RANGE",
	MatchICMPType:        "ICMP_TYPE",
	MatchICMPCode:        "ICMP_CODE",
	MatchICMPv6Type:      "ICMPV6_TYPE",
	MatchICMPv6Code:      "ICMPV6_CODE",
	MatchTunnelVNI:       "TUNNEL_VNI",
	MatchInnerEtherType:  "INNER_ETHER_TYPE",
	MatchInnerIPProtocol: "INNER_IP_PROTOCOL",
	MatchInnerL4SrcPort:  "INNER_L4_SRC_PORT",
	MatchInnerL4DstPort:  "INNER_L4_DST_PORT",
	MatchInnerSrcMAC:     "INNER_SRC_MAC",
	MatchInnerDstMAC:     "INNER_DST_MAC",
	MatchMetaData:        "ACL_META_DATA",
	MatchBTHOpcode:       "BTH_OPCODE",
	MatchAETHSyndrome:    "AETH_SYNDROME",
}

// matchFieldAliases lists accepted alternative spellings.
var matchFieldAliases = map[string]MatchField{
	"META_DATA": MatchMetaData,
}

var matchFieldsByName map[string]MatchField

// String returns the canonical upper-case form of the match field.
func (m MatchField) String() string {
	if name, known := matchFieldNames[m]; known {
		return name
	}
	return "INVALID"
}

// ParseMatchField parses a match field from its string form,
// case-insensitively, accepting the documented aliases.
func ParseMatchField(s string) (MatchField, error) {
	if field, known := matchFieldsByName[canonical(s)]; known {
		return field, nil
	}
	return 0, fmt.Errorf("unknown ACL match field: %q", s)
}

// ActionType enumerates the actions an ACL rule can request for matched
// packets. Like match fields, the actions usable by a rule are constrained
// by the table type.
type ActionType int

const (
	// ActionPacketAction forwards, drops or punts the packet (PacketAction).
	ActionPacketAction ActionType = iota
	// ActionRedirect redirects the packet to a next hop or port.
	ActionRedirect
	// ActionDoNotNat excludes the packet from NAT processing.
	ActionDoNotNat
	// ActionMirrorIngress mirrors the packet to an ingress mirror session.
	ActionMirrorIngress
	// ActionMirrorEgress mirrors the packet to an egress mirror session.
	ActionMirrorEgress
	// ActionCounter counts matched packets and bytes.
	ActionCounter
	// ActionSetDSCP rewrites the DSCP field.
	ActionSetDSCP
	// ActionSetTC overrides the internal traffic class.
	ActionSetTC
	// ActionSetPolicer attaches a policer to the matched flow.
	ActionSetPolicer
	// ActionDecrementTTL decrements the TTL / hop-limit field.
	ActionDecrementTTL
	// ActionSetInnerVlanID rewrites the inner VLAN ID.
	ActionSetInnerVlanID
	// ActionSetMetaData attaches an ACL metadata value to the packet.
	ActionSetMetaData
	// ActionDTelFlowOp selects the dataplane-telemetry flow operation.
	ActionDTelFlowOp
	// ActionDTelIntSession attaches an in-band telemetry session.
	ActionDTelIntSession
	// ActionDTelDropReportEnable enables telemetry drop reports.
	ActionDTelDropReportEnable
	// ActionDTelTailDropReportEnable enables telemetry tail-drop reports.
	ActionDTelTailDropReportEnable
	// ActionDTelFlowSamplePercent sets the telemetry flow sampling rate.
	ActionDTelFlowSamplePercent
	// ActionDTelReportAllPackets enables telemetry reports for every packet.
	ActionDTelReportAllPackets
)

// actionTypeNames holds the canonical upper-case form of every action type.
var actionTypeNames = map[ActionType]string{
	ActionPacketAction:             "PACKET_ACTION",
	ActionRedirect:                 "REDIRECT_ACTION",
	ActionDoNotNat:                 "DO_NOT_NAT_ACTION",
	ActionMirrorIngress:            "MIRROR_INGRESS_ACTION",
	ActionMirrorEgress:             "MIRROR_EGRESS_ACTION",
	ActionCounter:                  "COUNTER",
	ActionSetDSCP:                  "SET_DSCP",
	ActionSetTC:                    "SET_TC",
	ActionSetPolicer:               "SET_POLICER",
	ActionDecrementTTL:             "DECREMENT_TTL",
	ActionSetInnerVlanID:           "SET_INNER_VLAN_ID",
	ActionSetMetaData:              "SET_META_DATA",
	ActionDTelFlowOp:               "DTEL_FLOW_OP",
	ActionDTelIntSession:           "DTEL_INT_SESSION",
	ActionDTelDropReportEnable:     "DTEL_DROP_REPORT_ENABLE",
	ActionDTelTailDropReportEnable: "DTEL_TAIL_DROP_REPORT_ENABLE",
	ActionDTelFlowSamplePercent:    "DTEL_FLOW_SAMPLE_PERCENT",
	ActionDTelReportAllPackets:     "DTEL_REPORT_ALL_PACKETS",
}

var actionTypesByName map[string]ActionType

// String returns the canonical upper-case form of the action type.
func (a ActionType) String() string {
	if name, known := actionTypeNames[a]; known {
		return name
	}
	return "INVALID"
}

// ParseActionType parses an action type from its string form,
// case-insensitively.
func ParseActionType(s string) (ActionType, error) {
	if action, known := actionTypesByName[canonical(s)]; known {
		return action, nil
	}
	return 0, fmt.Errorf("unknown ACL action type: %q", s)
}

// PacketAction is the argument of ActionPacketAction - the verdict applied
// to a matched packet.
type PacketAction int

const (
	// PacketActionForward forwards the packet.
	PacketActionForward PacketAction = iota
	// PacketActionDrop drops the packet.
	PacketActionDrop
	// PacketActionCopy copies the packet to the CPU, forwarding the original.
	PacketActionCopy
	// PacketActionCopyCancel cancels a copy requested by an earlier stage.
	PacketActionCopyCancel
	// PacketActionTrap punts the packet to the CPU and drops the original.
	PacketActionTrap
	// PacketActionLog logs the packet and forwards it.
	PacketActionLog
	// PacketActionDeny drops the packet and cancels any pending copy.
	PacketActionDeny
	// PacketActionTransit forwards the packet and cancels any pending copy.
	PacketActionTransit
)

// packetActionNames holds the canonical upper-case form of every packet action.
var packetActionNames = map[PacketAction]string{
	PacketActionForward:    "FORWARD",
	PacketActionDrop:       "DROP",
	PacketActionCopy:       "COPY",
	PacketActionCopyCancel: "COPY_CANCEL",
	PacketActionTrap:       "TRAP",
	PacketActionLog:        "LOG",
	PacketActionDeny:       "DENY",
	PacketActionTransit:    "TRANSIT",
}

var packetActionsByName map[string]PacketAction

// String returns the canonical upper-case form of the packet action.
func (p PacketAction) String() string {
	if name, known := packetActionNames[p]; known {
		return name
	}
	return "INVALID"
}

// ParsePacketAction parses a packet action from its string form,
// case-insensitively.
func ParsePacketAction(s string) (PacketAction, error) {
	if action, known := packetActionsByName[canonical(s)]; known {
		return action, nil
	}
	return 0, fmt.Errorf("unknown ACL packet action: %q", s)
}

// MaxMetaDataValue is the largest ACL metadata value the dataplane can carry.
const MaxMetaDataValue = 4095

// MetaDataValue is a 12-bit metadata tag set by ActionSetMetaData and matched
// by MatchMetaData.
type MetaDataValue uint16

// NewMetaDataValue validates the range of a metadata value.
func NewMetaDataValue(value uint16) (MetaDataValue, error) {
	if value > MaxMetaDataValue {
		return 0, fmt.Errorf("ACL metadata value %d out of range [0, %d]",
			value, MaxMetaDataValue)
	}
	return MetaDataValue(value), nil
}

func init() {
	matchFieldsByName = make(map[string]MatchField)
	for field, name := range matchFieldNames {
		matchFieldsByName[name] = field
	}
	for alias, field := range matchFieldAliases {
		matchFieldsByName[alias] = field
	}
	actionTypesByName = make(map[string]ActionType)
	for action, name := range actionTypeNames {
		actionTypesByName[name] = action
	}
	packetActionsByName = make(map[string]PacketAction)
	for action, name := range packetActionNames {
		packetActionsByName[name] = action
	}
}

// canonical normalizes a vocabulary token before lookup.
func canonical(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// StageSet is a set of stages.
type StageSet map[Stage]struct{}

// NewStageSet is a constructor for StageSet.
func NewStageSet(stages ...Stage) StageSet {
	set := make(StageSet)
	for _, stage := range stages {
		set.Add(stage)
	}
	return set
}

// Copy returns a deep copy of the set.
func (set StageSet) Copy() StageSet {
	copied := NewStageSet()
	copied.Join(set)
	return copied
}

// Has returns true if the set contains the given stage.
func (set StageSet) Has(stage Stage) bool {
	_, has := set[stage]
	return has
}

// Add adds a stage into the set.
func (set StageSet) Add(stage Stage) {
	set[stage] = struct{}{}
}

// Join merges <set2> into this set.
func (set StageSet) Join(set2 StageSet) StageSet {
	for stage := range set2 {
		set.Add(stage)
	}
	return set
}

// List returns the members of the set ordered by their numeric value.
func (set StageSet) List() []Stage {
	list := make([]Stage, 0, len(set))
	for stage := range set {
		list = append(list, stage)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// String returns a human-readable string representation of the set.
func (set StageSet) String() string {
	return setString(len(set), func(emit func(string)) {
		for _, stage := range set.List() {
			emit(stage.String())
		}
	})
}

// BindPointSet is a set of bind point types.
type BindPointSet map[BindPointType]struct{}

// NewBindPointSet is a constructor for BindPointSet.
func NewBindPointSet(bindPoints ...BindPointType) BindPointSet {
	set := make(BindPointSet)
	for _, bindPoint := range bindPoints {
		set.Add(bindPoint)
	}
	return set
}

// Copy returns a deep copy of the set.
func (set BindPointSet) Copy() BindPointSet {
	copied := NewBindPointSet()
	copied.Join(set)
	return copied
}

// Has returns true if the set contains the given bind point type.
func (set BindPointSet) Has(bindPoint BindPointType) bool {
	_, has := set[bindPoint]
	return has
}

// Add adds a bind point type into the set.
func (set BindPointSet) Add(bindPoint BindPointType) {
	set[bindPoint] = struct{}{}
}

// Join merges <set2> into this set.
func (set BindPointSet) Join(set2 BindPointSet) BindPointSet {
	for bindPoint := range set2 {
		set.Add(bindPoint)
	}
	return set
}

// List returns the members of the set ordered by their numeric value.
func (set BindPointSet) List() []BindPointType {
	list := make([]BindPointType, 0, len(set))
	for bindPoint := range set {
		list = append(list, bindPoint)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// String returns a human-readable string representation of the set.
func (set BindPointSet) String() string {
	return setString(len(set), func(emit func(string)) {
		for _, bindPoint := range set.List() {
			emit(bindPoint.String())
		}
	})
}

// MatchSet is a set of match fields.
type MatchSet map[MatchField]struct{}

// NewMatchSet is a constructor for MatchSet.
func NewMatchSet(fields ...MatchField) MatchSet {
	set := make(MatchSet)
	for _, field := range fields {
		set.Add(field)
	}
	return set
}

// Copy returns a deep copy of the set.
func (set MatchSet) Copy() MatchSet {
	copied := NewMatchSet()
	copied.Join(set)
	return copied
}

// Has returns true if the set contains the given match field.
func (set MatchSet) Has(field MatchField) bool {
	_, has := set[field]
	return has
}

// Add adds a match field into the set.
func (set MatchSet) Add(field MatchField) {
	set[field] = struct{}{}
}

// Join merges <set2> into this set.
func (set MatchSet) Join(set2 MatchSet) MatchSet {
	for field := range set2 {
		set.Add(field)
	}
	return set
}

// Equals compares two sets for equality.
func (set MatchSet) Equals(set2 MatchSet) bool {
	if len(set) != len(set2) {
		return false
	}
	for field := range set {
		if !set2.Has(field) {
			return false
		}
	}
	return true
}

// List returns the members of the set ordered by their numeric value.
func (set MatchSet) List() []MatchField {
	list := make([]MatchField, 0, len(set))
	for field := range set {
		list = append(list, field)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// String returns a human-readable string representation of the set.
func (set MatchSet) String() string {
	return setString(len(set), func(emit func(string)) {
		for _, field := range set.List() {
			emit(field.String())
		}
	})
}

// ActionSet is a set of action types.
type ActionSet map[ActionType]struct{}

// NewActionSet is a constructor for ActionSet.
func NewActionSet(actions ...ActionType) ActionSet {
	set := make(ActionSet)
	for _, action := range actions {
		set.Add(action)
	}
	return set
}

// Copy returns a deep copy of the set.
func (set ActionSet) Copy() ActionSet {
	copied := NewActionSet()
	copied.Join(set)
	return copied
}

// Has returns true if the set contains the given action type.
func (set ActionSet) Has(action ActionType) bool {
	_, has := set[action]
	return has
}

// Add adds an action type into the set.
func (set ActionSet) Add(action ActionType) {
	set[action] = struct{}{}
}

// Join merges <set2> into this set.
func (set ActionSet) Join(set2 ActionSet) ActionSet {
	for action := range set2 {
		set.Add(action)
	}
	return set
}

// Equals compares two sets for equality.
func (set ActionSet) Equals(set2 ActionSet) bool {
	if len(set) != len(set2) {
		return false
	}
	for action := range set {
		if !set2.Has(action) {
			return false
		}
	}
	return true
}

// List returns the members of the set ordered by their numeric value.
func (set ActionSet) List() []ActionType {
	list := make([]ActionType, 0, len(set))
	for action := range set {
		list = append(list, action)
	}
	sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	return list
}

// String returns a human-readable string representation of the set.
func (set ActionSet) String() string {
	return setString(len(set), func(emit func(string)) {
		for _, action := range set.List() {
			emit(action.String())
		}
	})
}

// PortSet is a set of port aliases.
type PortSet map[string]struct{}

// NewPortSet is a constructor for PortSet.
func NewPortSet(ports ...string) PortSet {
	set := make(PortSet)
	for _, port := range ports {
		set.Add(port)
	}
	return set
}

// Copy returns a deep copy of the set.
func (set PortSet) Copy() PortSet {
	copied := NewPortSet()
	copied.Join(set)
	return copied
}

// Has returns true if the set contains the given port alias.
func (set PortSet) Has(port string) bool {
	_, has := set[port]
	return has
}

// Add adds a port alias into the set.
func (set PortSet) Add(port string) {
	set[port] = struct{}{}
}

// Remove removes a port alias from the set if it is there.
func (set PortSet) Remove(port string) bool {
	if _, exists := set[port]; exists {
		delete(set, port)
		return true
	}
	return false
}

// Join merges <set2> into this set.
func (set PortSet) Join(set2 PortSet) PortSet {
	for port := range set2 {
		set.Add(port)
	}
	return set
}

// Equals compares two sets for equality.
func (set PortSet) Equals(set2 PortSet) bool {
	if len(set) != len(set2) {
		return false
	}
	for port := range set {
		if !set2.Has(port) {
			return false
		}
	}
	return true
}

// List returns the members of the set in lexical order.
func (set PortSet) List() []string {
	list := make([]string, 0, len(set))
	for port := range set {
		list = append(list, port)
	}
	sort.Strings(list)
	return list
}

// String returns a human-readable string representation of the set.
func (set PortSet) String() string {
	return setString(len(set), func(emit func(string)) {
		for _, port := range set.List() {
			emit(port)
		}
	})
}

// setString renders set members as "{a, b, c}".
func setString(size int, walk func(emit func(string))) string {
	str := "{"
	count := 0
	walk(func(member string) {
		count++
		str += member
		if count < size {
			str += ", "
		}
	})
	str += "}"
	return str
}
