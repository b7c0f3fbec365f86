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

package statscollector

import (
	"testing"

	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/portsorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

type fixture struct {
	db        *swssdb.Plugin
	sai       *saiclient.Plugin
	ports     *portsorch.Plugin
	orch      *aclorch.Plugin
	collector *Plugin

	tablesBroker *swssdb.Broker
	rulesBroker  *swssdb.Broker
	portsBroker  *swssdb.Broker
}

func newFixture(t *testing.T) *fixture {
	gomega.RegisterTestingT(t)

	f := &fixture{}
	f.db = swssdb.NewPlugin(swssdb.UseConf(swssdb.Config{Database: "gomap"}))
	gomega.Expect(f.db.Init()).To(gomega.BeNil())

	f.tablesBroker = f.db.NewBroker(swssdb.ConfigDB, "ACL_TABLE")
	f.rulesBroker = f.db.NewBroker(swssdb.ConfigDB, "ACL_RULE")
	f.portsBroker = f.db.NewBroker(swssdb.ConfigDB, "PORT")

	f.sai = saiclient.NewPlugin(saiclient.UseDeps(func(deps *saiclient.Deps) {
		deps.SwssDB = f.db
	}))
	gomega.Expect(f.sai.Init()).To(gomega.BeNil())

	f.ports = portsorch.NewPlugin(portsorch.UseDeps(func(deps *portsorch.Deps) {
		deps.SwssDB = f.db
		deps.Sai = f.sai
	}))
	gomega.Expect(f.ports.Init()).To(gomega.BeNil())

	f.orch = aclorch.NewPlugin(aclorch.UseDeps(func(deps *aclorch.Deps) {
		deps.SwssDB = f.db
		deps.Sai = f.sai
		deps.Ports = f.ports
		deps.HTTPHandlers = nil
	}))
	gomega.Expect(f.orch.Init()).To(gomega.BeNil())

	// no prometheus wired, the vectors are still maintained; the period is
	// long enough to keep the loop out of the way, collections are forced
	// by the tests
	f.collector = NewPlugin(UseDeps(func(deps *Deps) {
		deps.AclOrch = f.orch
		deps.Counters = f.sai
		deps.Prometheus = nil
	}), UseConf(Config{Period: 3600}))
	gomega.Expect(f.collector.Init()).To(gomega.BeNil())
	return f
}

func (f *fixture) gauge(name string, labels prometheus.Labels) float64 {
	gauge, err := f.collector.gaugeVecs[name].GetMetricWith(labels)
	gomega.Expect(err).To(gomega.BeNil())
	metric := &dto.Metric{}
	gomega.Expect(gauge.Write(metric)).To(gomega.BeNil())
	return metric.GetGauge().GetValue()
}

func (f *fixture) gaugeCount(name string) int {
	ch := make(chan prometheus.Metric)
	go func() {
		f.collector.gaugeVecs[name].Collect(ch)
		close(ch)
	}()
	count := 0
	for range ch {
		count++
	}
	return count
}

func (f *fixture) ruleCount(table string) func() int {
	return func() int {
		state, _ := f.orch.GetTableState(table)
		return len(state.Rules)
	}
}

func TestMissingDeps(t *testing.T) {
	gomega.RegisterTestingT(t)
	p := NewPlugin(UseDeps(func(deps *Deps) {
		deps.AclOrch = nil
		deps.Counters = nil
		deps.Prometheus = nil
	}))
	gomega.Expect(p.Init()).ToNot(gomega.BeNil())
}

func TestCollectedGauges(t *testing.T) {
	f := newFixture(t)

	gomega.Expect(f.portsBroker.Set("Ethernet0", map[string]string{
		"admin_status": "up", "speed": "40000",
	})).To(gomega.BeNil())
	gomega.Expect(f.tablesBroker.Set("DATAACL", map[string]string{
		"type": "L3", "stage": "ingress", "ports": "Ethernet0,Ethernet4",
	})).To(gomega.BeNil())
	gomega.Expect(f.rulesBroker.Set("DATAACL|RULE_10", map[string]string{
		"priority": "10", "src_ip": "10.0.0.0/8", "packet_action": "drop",
	})).To(gomega.BeNil())
	gomega.Expect(f.rulesBroker.Set("DATAACL|RULE_20", map[string]string{
		"priority": "20", "dst_ip": "10.1.0.0/16", "packet_action": "forward",
	})).To(gomega.BeNil())
	gomega.Eventually(f.ruleCount("DATAACL")).Should(gomega.Equal(2))
	gomega.Eventually(func() []string {
		state, _ := f.orch.GetTableState("DATAACL")
		return state.BoundPorts
	}).Should(gomega.Equal([]string{"Ethernet0"}))

	// traffic hits one of the rules
	state, _ := f.orch.GetTableState("DATAACL")
	for _, rule := range state.Rules {
		if rule.ID == "RULE_10" {
			gomega.Expect(f.sai.BumpAclCounter(rule.CounterOID, 1000, 64000)).To(gomega.BeNil())
		}
	}

	f.collector.updateStats()

	gomega.Expect(f.gauge(aclTablesMetric, prometheus.Labels{
		tableTypeLabel: "L3", stageLabel: "INGRESS",
	})).To(gomega.Equal(float64(1)))

	tableLabels := prometheus.Labels{tableLabel: "DATAACL"}
	gomega.Expect(f.gauge(aclRulesMetric, tableLabels)).To(gomega.Equal(float64(2)))
	gomega.Expect(f.gauge(aclBoundPortsMetric, tableLabels)).To(gomega.Equal(float64(1)))
	gomega.Expect(f.gauge(aclPendingPortsMetric, tableLabels)).To(gomega.Equal(float64(1)))

	hitLabels := prometheus.Labels{tableLabel: "DATAACL", ruleLabel: "RULE_10"}
	gomega.Expect(f.gauge(aclRulePacketsMetric, hitLabels)).To(gomega.Equal(float64(1000)))
	gomega.Expect(f.gauge(aclRuleBytesMetric, hitLabels)).To(gomega.Equal(float64(64000)))
	missLabels := prometheus.Labels{tableLabel: "DATAACL", ruleLabel: "RULE_20"}
	gomega.Expect(f.gauge(aclRulePacketsMetric, missLabels)).To(gomega.Equal(float64(0)))
}

func TestRemovedObjectsPruned(t *testing.T) {
	f := newFixture(t)

	gomega.Expect(f.tablesBroker.Set("DATAACL", map[string]string{
		"type": "L3", "stage": "ingress",
	})).To(gomega.BeNil())
	gomega.Expect(f.rulesBroker.Set("DATAACL|RULE_10", map[string]string{
		"priority": "10", "src_ip": "10.0.0.0/8", "packet_action": "drop",
	})).To(gomega.BeNil())
	gomega.Eventually(f.ruleCount("DATAACL")).Should(gomega.Equal(1))

	f.collector.updateStats()
	gomega.Expect(f.gaugeCount(aclTablesMetric)).To(gomega.Equal(1))
	gomega.Expect(f.gaugeCount(aclRulesMetric)).To(gomega.Equal(1))
	gomega.Expect(f.gaugeCount(aclRulePacketsMetric)).To(gomega.Equal(1))

	// the rule goes away, its per-rule gauges must follow
	_, err := f.rulesBroker.Del("DATAACL|RULE_10")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Eventually(f.ruleCount("DATAACL")).Should(gomega.Equal(0))

	f.collector.updateStats()
	gomega.Expect(f.gaugeCount(aclRulePacketsMetric)).To(gomega.Equal(0))
	gomega.Expect(f.gaugeCount(aclRuleBytesMetric)).To(gomega.Equal(0))
	gomega.Expect(f.gauge(aclRulesMetric, prometheus.Labels{tableLabel: "DATAACL"})).
		To(gomega.Equal(float64(0)))

	// and so does the table
	_, err = f.tablesBroker.Del("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Eventually(func() bool {
		_, known := f.orch.GetTableState("DATAACL")
		return known
	}).Should(gomega.BeFalse())

	f.collector.updateStats()
	gomega.Expect(f.gaugeCount(aclTablesMetric)).To(gomega.Equal(0))
	gomega.Expect(f.gaugeCount(aclRulesMetric)).To(gomega.Equal(0))
	gomega.Expect(f.gaugeCount(aclBoundPortsMetric)).To(gomega.Equal(0))
	gomega.Expect(f.gaugeCount(aclPendingPortsMetric)).To(gomega.Equal(0))
}
