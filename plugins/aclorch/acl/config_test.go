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

func TestTableConfigParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	cfg := NewTableConfig("EVERFLOW")
	gomega.Expect(cfg.HasStage()).To(gomega.BeFalse())

	gomega.Expect(cfg.ParseField("Type", " MIRROR ")).To(gomega.BeNil())
	gomega.Expect(cfg.TypeName).To(gomega.Equal("MIRROR"))

	gomega.Expect(cfg.ParseField("STAGE", "Egress")).To(gomega.BeNil())
	gomega.Expect(cfg.HasStage()).To(gomega.BeTrue())
	gomega.Expect(cfg.Stage).To(gomega.Equal(StageEgress))

	// whitespace and empty tokens in the port list are dropped
	gomega.Expect(cfg.ParseField("PORTS", " Ethernet0, ,Ethernet4,,")).To(gomega.BeNil())
	gomega.Expect(cfg.Ports).To(gomega.Equal([]string{"Ethernet0", "Ethernet4"}))

	// the list-typed key variant is accepted too
	gomega.Expect(cfg.ParseField("ports@", "Ethernet8")).To(gomega.BeNil())
	gomega.Expect(cfg.Ports).To(gomega.Equal([]string{"Ethernet8"}))

	gomega.Expect(cfg.ParseField("DESCRIPTION", "everflow session")).To(gomega.BeNil())
	gomega.Expect(cfg.Description).To(gomega.Equal("everflow session"))

	// unknown fields are tolerated, not fatal
	gomega.Expect(cfg.ParseField("SERVICES", "SNMP")).To(gomega.BeNil())
	gomega.Expect(cfg.Unknown()).To(gomega.Equal(1))

	// a bad stage value is an error
	err := cfg.ParseField("STAGE", "SIDEWAYS")
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(cfg.Stage).To(gomega.Equal(StageEgress))
}

func TestRuleConfigParsing(t *testing.T) {
	gomega.RegisterTestingT(t)

	cfg := NewRuleConfig()

	gomega.Expect(cfg.ParseField("PRIORITY", " 9999 ")).To(gomega.BeNil())
	gomega.Expect(cfg.Priority).To(gomega.BeEquivalentTo(9999))

	err := cfg.ParseField("PRIORITY", "uppermost")
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("uppermost"))

	// match values stay in their configured string form
	gomega.Expect(cfg.ParseField("SRC_IP", "10.0.0.0/24")).To(gomega.BeNil())
	gomega.Expect(cfg.ParseField("l4_dst_port", "443")).To(gomega.BeNil())
	gomega.Expect(cfg.Matches).To(gomega.HaveLen(2))
	gomega.Expect(cfg.Matches[MatchSrcIP]).To(gomega.Equal("10.0.0.0/24"))
	gomega.Expect(cfg.Matches[MatchL4DstPort]).To(gomega.Equal("443"))

	// packet action values are canonicalized
	gomega.Expect(cfg.ParseField("PACKET_ACTION", "drop")).To(gomega.BeNil())
	gomega.Expect(cfg.Actions[ActionPacketAction]).To(gomega.Equal("DROP"))
	err = cfg.ParseField("PACKET_ACTION", "BOUNCE")
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(cfg.Actions[ActionPacketAction]).To(gomega.Equal("DROP"))

	// metadata is range-checked at parse time
	gomega.Expect(cfg.ParseField("ACL_META_DATA", "4095")).To(gomega.BeNil())
	err = cfg.ParseField("ACL_META_DATA", "4096")
	gomega.Expect(err).ToNot(gomega.BeNil())
	err = cfg.ParseField("ACL_META_DATA", "lots")
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(cfg.Matches[MatchMetaData]).To(gomega.Equal("4095"))

	// unrecognized fields are counted but ignored
	gomega.Expect(cfg.ParseField("COLOR", "blue")).To(gomega.BeNil())
	gomega.Expect(cfg.Unknown()).To(gomega.Equal(1))

	rule := cfg.BuildRule("RULE_7")
	gomega.Expect(rule.ID).To(gomega.Equal("RULE_7"))
	gomega.Expect(rule.Priority).To(gomega.BeEquivalentTo(9999))
	gomega.Expect(rule.Matches).To(gomega.HaveLen(3))
	gomega.Expect(rule.Actions).To(gomega.HaveLen(1))

	// the built rule is detached from the parse buffer
	cfg.Matches[MatchDSCP] = "46"
	gomega.Expect(rule.Matches).To(gomega.HaveLen(3))
}

func TestRuleConfigAgainstTableType(t *testing.T) {
	gomega.RegisterTestingT(t)

	// the parser accepts every known field; the capability check happens
	// when the built rule is added to a table
	cfg := NewRuleConfig()
	gomega.Expect(cfg.ParseField("PRIORITY", "100")).To(gomega.BeNil())
	gomega.Expect(cfg.ParseField("SRC_IPV6", "2001:db8::/64")).To(gomega.BeNil())
	gomega.Expect(cfg.ParseField("PACKET_ACTION", "FORWARD")).To(gomega.BeNil())

	table := l3Table("DATAACL")
	err := table.AddRule(cfg.BuildRule("RULE_1"))
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("SRC_IPV6"))
	gomega.Expect(table.IsEmpty()).To(gomega.BeTrue())
}
