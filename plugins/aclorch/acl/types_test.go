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

func TestStageParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	stage, err := ParseStage("INGRESS")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(stage).To(gomega.Equal(StageIngress))

	// case-insensitive, whitespace tolerated
	stage, err = ParseStage(" egress ")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(stage).To(gomega.Equal(StageEgress))

	gomega.Expect(StageIngress.String()).To(gomega.Equal("INGRESS"))
	gomega.Expect(StageEgress.String()).To(gomega.Equal("EGRESS"))

	_, err = ParseStage("SIDEWAYS")
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("SIDEWAYS"))
}

func TestBindPointTypeParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	for input, expected := range map[string]BindPointType{
		"PORT":             BindPointPort,
		"lag":              BindPointLag,
		"Vlan":             BindPointVlan,
		"ROUTER_INTERFACE": BindPointRouterInterface,
		"RIF":              BindPointRouterInterface,
		"rif":              BindPointRouterInterface,
		"SWITCH":           BindPointSwitch,
	} {
		bindPoint, err := ParseBindPointType(input)
		gomega.Expect(err).To(gomega.BeNil())
		gomega.Expect(bindPoint).To(gomega.Equal(expected))
	}

	// the alias parses but does not change the canonical form
	gomega.Expect(BindPointRouterInterface.String()).To(gomega.Equal("ROUTER_INTERFACE"))

	_, err := ParseBindPointType("BRIDGE")
	gomega.Expect(err).ToNot(gomega.BeNil())
}

func TestMatchFieldParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	for input, expected := range map[string]MatchField{
		"SRC_IP":            MatchSrcIP,
		"dst_ip":            MatchDstIP,
		"L4_SRC_PORT_RANGE": MatchL4SrcPortRange,
		"INNER_SRC_MAC":     MatchInnerSrcMAC,
		"ACL_META_DATA":     MatchMetaData,
		"META_DATA":         MatchMetaData,
		"bth_opcode":        MatchBTHOpcode,
	} {
		field, err := ParseMatchField(input)
		gomega.Expect(err).To(gomega.BeNil())
		gomega.Expect(field).To(gomega.Equal(expected))
	}

	gomega.Expect(MatchMetaData.String()).To(gomega.Equal("ACL_META_DATA"))
	gomega.Expect(MatchL4DstPortRange.String()).To(gomega.Equal("L4_DST_PORT_RANGE"))

	_, err := ParseMatchField("SRC_PORT")
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("SRC_PORT"))
}

func TestActionTypeParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	for input, expected := range map[string]ActionType{
		"PACKET_ACTION":         ActionPacketAction,
		"redirect_action":       ActionRedirect,
		"MIRROR_INGRESS_ACTION": ActionMirrorIngress,
		"SET_DSCP":              ActionSetDSCP,
		"COUNTER":               ActionCounter,
		"dtel_flow_op":          ActionDTelFlowOp,
	} {
		action, err := ParseActionType(input)
		gomega.Expect(err).To(gomega.BeNil())
		gomega.Expect(action).To(gomega.Equal(expected))
	}

	gomega.Expect(ActionRedirect.String()).To(gomega.Equal("REDIRECT_ACTION"))

	_, err := ParseActionType("TELEPORT")
	gomega.Expect(err).ToNot(gomega.BeNil())
}

func TestPacketActionParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	for input, expected := range map[string]PacketAction{
		"FORWARD":     PacketActionForward,
		"drop":        PacketActionDrop,
		"COPY_CANCEL": PacketActionCopyCancel,
		"Transit":     PacketActionTransit,
	} {
		action, err := ParsePacketAction(input)
		gomega.Expect(err).To(gomega.BeNil())
		gomega.Expect(action).To(gomega.Equal(expected))
	}

	_, err := ParsePacketAction("BOUNCE")
	gomega.Expect(err).ToNot(gomega.BeNil())
}

func TestMetaDataValueRange(t *testing.T) {
	gomega.RegisterTestingT(t)

	value, err := NewMetaDataValue(0)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(value).To(gomega.BeEquivalentTo(0))

	value, err = NewMetaDataValue(MaxMetaDataValue)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(value).To(gomega.BeEquivalentTo(4095))

	_, err = NewMetaDataValue(MaxMetaDataValue + 1)
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("4096"))
}

func TestPortSetOperations(t *testing.T) {
	gomega.RegisterTestingT(t)

	set := NewPortSet("Ethernet4", "Ethernet0")
	gomega.Expect(set.Has("Ethernet0")).To(gomega.BeTrue())
	gomega.Expect(set.Has("Ethernet8")).To(gomega.BeFalse())

	// List is sorted
	gomega.Expect(set.List()).To(gomega.Equal([]string{"Ethernet0", "Ethernet4"}))

	// Copy is independent of the original
	copied := set.Copy()
	copied.Add("Ethernet8")
	gomega.Expect(set.Has("Ethernet8")).To(gomega.BeFalse())
	gomega.Expect(copied.Has("Ethernet8")).To(gomega.BeTrue())

	gomega.Expect(set.Remove("Ethernet4")).To(gomega.BeTrue())
	gomega.Expect(set.Remove("Ethernet4")).To(gomega.BeFalse())

	set.Join(copied)
	gomega.Expect(set.Equals(NewPortSet("Ethernet0", "Ethernet4", "Ethernet8"))).To(gomega.BeTrue())
	gomega.Expect(set.Equals(copied)).To(gomega.BeTrue())
	gomega.Expect(set.String()).To(gomega.Equal("{Ethernet0, Ethernet4, Ethernet8}"))
}

func TestMatchSetOperations(t *testing.T) {
	gomega.RegisterTestingT(t)

	set := NewMatchSet(MatchDstIP, MatchSrcIP)
	gomega.Expect(set.Has(MatchSrcIP)).To(gomega.BeTrue())
	gomega.Expect(set.Has(MatchSrcIPv6)).To(gomega.BeFalse())
	gomega.Expect(set.List()).To(gomega.Equal([]MatchField{MatchSrcIP, MatchDstIP}))
	gomega.Expect(set.String()).To(gomega.Equal("{SRC_IP, DST_IP}"))

	set2 := NewMatchSet(MatchSrcIP, MatchDstIP)
	gomega.Expect(set.Equals(set2)).To(gomega.BeTrue())
	set2.Add(MatchTC)
	gomega.Expect(set.Equals(set2)).To(gomega.BeFalse())
}
