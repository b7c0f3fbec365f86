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
	"testing"

	"github.com/onsi/gomega"
)

func TestTableTypeBuilderValidation(t *testing.T) {
	gomega.RegisterTestingT(t)

	// name is mandatory
	_, err := NewTableTypeBuilder().
		WithBindPoint(BindPointPort).
		WithMatch(MatchSrcIP).
		Build()
	gomega.Expect(err).ToNot(gomega.BeNil())
	incomplete, isIncomplete := err.(*IncompleteTypeError)
	gomega.Expect(isIncomplete).To(gomega.BeTrue())
	gomega.Expect(incomplete.GetReason()).To(gomega.ContainSubstring("name"))

	// at least one bind point is mandatory
	_, err = NewTableTypeBuilder().
		WithName("TUNNEL_FILTER").
		WithMatch(MatchTunnelVNI).
		Build()
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("bind points"))

	// a type with neither matches nor actions cannot express anything
	_, err = NewTableTypeBuilder().
		WithName("TUNNEL_FILTER").
		WithBindPoint(BindPointPort).
		Build()
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("neither matches nor actions"))

	// minimal well-formed type
	tableType, err := NewTableTypeBuilder().
		WithName("TUNNEL_FILTER").
		WithBindPoint(BindPointPort).
		WithMatch(MatchTunnelVNI).
		WithAction(ActionPacketAction).
		Build()
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(tableType.Name()).To(gomega.Equal("TUNNEL_FILTER"))
	gomega.Expect(tableType.IsBuiltin()).To(gomega.BeFalse())
	gomega.Expect(tableType.SupportsMatch(MatchTunnelVNI)).To(gomega.BeTrue())
	gomega.Expect(tableType.SupportsMatch(MatchSrcIP)).To(gomega.BeFalse())
}

func TestTableTypeImmutability(t *testing.T) {
	gomega.RegisterTestingT(t)

	matches := NewMatchSet(MatchSrcIP)
	builder := NewTableTypeBuilder().
		WithName("CUSTOM").
		WithBindPoint(BindPointPort).
		WithMatches(matches).
		WithAction(ActionCounter)
	tableType, err := builder.Build()
	gomega.Expect(err).To(gomega.BeNil())

	// later mutation of the input set must not leak into the built type
	matches.Add(MatchDstIP)
	builder.WithMatch(MatchTC)
	gomega.Expect(tableType.SupportsMatch(MatchDstIP)).To(gomega.BeFalse())
	gomega.Expect(tableType.SupportsMatch(MatchTC)).To(gomega.BeFalse())

	// accessors hand out copies
	tableType.Matches().Add(MatchVlanID)
	gomega.Expect(tableType.SupportsMatch(MatchVlanID)).To(gomega.BeFalse())
}

func TestBuiltinTableTypeRegistry(t *testing.T) {
	gomega.RegisterTestingT(t)

	registry := BuiltinTableTypes()
	gomega.Expect(registry).To(gomega.HaveLen(6))
	for _, name := range []string{
		TableTypeL3, TableTypeL3V6, TableTypeMirror,
		TableTypePFCWD, TableTypeDrop, TableTypeCtrlPlane,
	} {
		tableType, known := BuiltinTableType(name)
		gomega.Expect(known).To(gomega.BeTrue())
		gomega.Expect(tableType.Name()).To(gomega.Equal(name))
		gomega.Expect(tableType.IsBuiltin()).To(gomega.BeTrue())
		gomega.Expect(registry[name]).To(gomega.BeIdenticalTo(tableType))
	}

	// template instances are shared, not copied per lookup
	first, _ := BuiltinTableType(TableTypeL3)
	second, _ := BuiltinTableType(TableTypeL3)
	gomega.Expect(first).To(gomega.BeIdenticalTo(second))

	_, known := BuiltinTableType("L4")
	gomega.Expect(known).To(gomega.BeFalse())
}

func TestL3MatchValidation(t *testing.T) {
	gomega.RegisterTestingT(t)

	l3, _ := BuiltinTableType(TableTypeL3)

	err := l3.ValidateMatches(NewMatchSet(MatchSrcIP, MatchDstIP))
	gomega.Expect(err).To(gomega.BeNil())

	// IPv6 addresses belong to L3V6, not L3
	err = l3.ValidateMatches(NewMatchSet(MatchSrcIPv6))
	gomega.Expect(err).ToNot(gomega.BeNil())
	unsupported, isUnsupported := err.(*UnsupportedMatchError)
	gomega.Expect(isUnsupported).To(gomega.BeTrue())
	gomega.Expect(unsupported.GetTableType()).To(gomega.Equal(TableTypeL3))
	gomega.Expect(unsupported.GetMatchField()).To(gomega.Equal(MatchSrcIPv6))
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("L3"))
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("SRC_IPV6"))
}

func TestL3V6MatchVocabulary(t *testing.T) {
	gomega.RegisterTestingT(t)

	l3v6, _ := BuiltinTableType(TableTypeL3V6)

	gomega.Expect(l3v6.SupportsMatch(MatchSrcIPv6)).To(gomega.BeTrue())
	gomega.Expect(l3v6.SupportsMatch(MatchDstIPv6)).To(gomega.BeTrue())
	gomega.Expect(l3v6.SupportsMatch(MatchICMPv6Type)).To(gomega.BeTrue())
	gomega.Expect(l3v6.SupportsMatch(MatchICMPv6Code)).To(gomega.BeTrue())
	gomega.Expect(l3v6.SupportsMatch(MatchNextHeader)).To(gomega.BeTrue())

	// the IPv4-only fields are swapped out
	gomega.Expect(l3v6.SupportsMatch(MatchSrcIP)).To(gomega.BeFalse())
	gomega.Expect(l3v6.SupportsMatch(MatchDstIP)).To(gomega.BeFalse())
	gomega.Expect(l3v6.SupportsMatch(MatchICMPType)).To(gomega.BeFalse())
	gomega.Expect(l3v6.SupportsMatch(MatchICMPCode)).To(gomega.BeFalse())

	// the shared vocabulary stays
	gomega.Expect(l3v6.SupportsMatch(MatchL4SrcPortRange)).To(gomega.BeTrue())
	gomega.Expect(l3v6.SupportsMatch(MatchTCPFlags)).To(gomega.BeTrue())
}

func TestMirrorCapabilities(t *testing.T) {
	gomega.RegisterTestingT(t)

	mirror, _ := BuiltinTableType(TableTypeMirror)

	// MIRROR carries both address families plus L2 and tunnel fields
	gomega.Expect(mirror.SupportsMatch(MatchSrcIP)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsMatch(MatchSrcIPv6)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsMatch(MatchSrcMAC)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsMatch(MatchTunnelVNI)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsMatch(MatchInnerL4DstPort)).To(gomega.BeTrue())

	// mirroring actions only, no forwarding verdicts
	gomega.Expect(mirror.SupportsAction(ActionMirrorIngress)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsAction(ActionMirrorEgress)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsAction(ActionCounter)).To(gomega.BeTrue())
	gomega.Expect(mirror.SupportsAction(ActionPacketAction)).To(gomega.BeFalse())
	gomega.Expect(mirror.SupportsAction(ActionRedirect)).To(gomega.BeFalse())

	err := mirror.ValidateActions(NewActionSet(ActionRedirect))
	gomega.Expect(err).ToNot(gomega.BeNil())
	unsupported, isUnsupported := err.(*UnsupportedActionError)
	gomega.Expect(isUnsupported).To(gomega.BeTrue())
	gomega.Expect(unsupported.GetAction()).To(gomega.Equal(ActionRedirect))
}

func TestPFCWDStageRestriction(t *testing.T) {
	gomega.RegisterTestingT(t)

	pfcwd, _ := BuiltinTableType(TableTypePFCWD)
	gomega.Expect(pfcwd.SupportsStage(StageIngress)).To(gomega.BeTrue())
	gomega.Expect(pfcwd.SupportsStage(StageEgress)).To(gomega.BeFalse())

	// PFCWD is the only built-in type bindable to the switch itself
	gomega.Expect(pfcwd.SupportsBindPoint(BindPointSwitch)).To(gomega.BeTrue())
	gomega.Expect(pfcwd.SupportsBindPoint(BindPointLag)).To(gomega.BeFalse())

	// L3 has no stage restriction
	l3, _ := BuiltinTableType(TableTypeL3)
	gomega.Expect(l3.SupportsStage(StageIngress)).To(gomega.BeTrue())
	gomega.Expect(l3.SupportsStage(StageEgress)).To(gomega.BeTrue())
	gomega.Expect(l3.SupportsBindPoint(BindPointPort)).To(gomega.BeTrue())
	gomega.Expect(l3.SupportsBindPoint(BindPointLag)).To(gomega.BeTrue())
	gomega.Expect(l3.SupportsBindPoint(BindPointSwitch)).To(gomega.BeFalse())
}

func TestStageUnrestrictedWhenUnset(t *testing.T) {
	gomega.RegisterTestingT(t)

	// a type built without WithStage is usable at both stages
	tableType, err := NewTableTypeBuilder().
		WithName("CUSTOM").
		WithBindPoint(BindPointPort).
		WithMatch(MatchDSCP).
		WithAction(ActionSetTC).
		Build()
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(tableType.SupportsStage(StageIngress)).To(gomega.BeTrue())
	gomega.Expect(tableType.SupportsStage(StageEgress)).To(gomega.BeTrue())
	gomega.Expect(tableType.Stages()).To(gomega.BeEmpty())
}
