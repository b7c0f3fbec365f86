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

// Package statscollector polls the ACL orchestration state and the hardware
// hit counters and publishes them to prometheus.
package statscollector

import (
	"fmt"
	"sync"
	"time"

	"github.com/ligato/cn-infra/infra"
	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
)

const (
	// path where the statistics are exposed
	prometheusStatsPath = "/stats"

	tableTypeLabel = "type"
	stageLabel     = "stage"
	tableLabel     = "table"
	ruleLabel      = "rule"

	aclTablesMetric       = "aclTables"
	aclRulesMetric        = "aclRules"
	aclBoundPortsMetric   = "aclBoundPorts"
	aclPendingPortsMetric = "aclPendingPorts"
	aclRulePacketsMetric  = "aclRulePackets"
	aclRuleBytesMetric    = "aclRuleBytes"
)

// defaultPeriod is the collection period in seconds used when the config
// file does not say otherwise.
const defaultPeriod = 10

var errMissingDep = fmt.Errorf("missing mandatory dependency")

// Plugin collects the ACL statistics and publishes them to prometheus.
type Plugin struct {
	Deps
	sync.Mutex
	config    *Config
	closeCh   chan interface{}
	gaugeVecs map[string]*prometheus.GaugeVec

	// label sets currently exported, used to drop gauges of removed objects
	typeLabels  map[typeStage]struct{}
	tableLabels map[string]struct{}
	ruleLabels  map[tableRule]struct{}
}

// Deps groups the dependencies of the Plugin.
type Deps struct {
	infra.PluginDeps

	// AclOrch provides the ACL state snapshots.
	AclOrch aclorch.API

	// Counters reads the hit counters of ACL entries.
	Counters saiclient.CounterAPI

	// Prometheus plugin used to stream statistics
	Prometheus prometheusplugin.API
}

// Config holds the statscollector plugin configuration.
type Config struct {
	// Period between two consecutive collections, in seconds.
	Period int `json:"period"`
}

type typeStage struct {
	tableType string
	stage     string
}

type tableRule struct {
	table string
	rule  string
}

func defaultConfig() *Config {
	return &Config{Period: defaultPeriod}
}

// Init initializes the plugin resources and starts the collection loop.
func (p *Plugin) Init() error {
	if p.AclOrch == nil || p.Counters == nil {
		return errMissingDep
	}
	if p.config == nil {
		p.config = defaultConfig()
		if p.Cfg != nil {
			if _, err := p.Cfg.LoadValue(p.config); err != nil {
				return err
			}
		}
	}
	if p.config.Period <= 0 {
		p.config.Period = defaultPeriod
	}

	p.closeCh = make(chan interface{})
	p.gaugeVecs = map[string]*prometheus.GaugeVec{}
	p.typeLabels = map[typeStage]struct{}{}
	p.tableLabels = map[string]struct{}{}
	p.ruleLabels = map[tableRule]struct{}{}

	// initialize gauge vectors for statistics
	for _, statItem := range []struct {
		name   string
		help   string
		labels []string
	}{
		{aclTablesMetric, "Number of ACL tables per type and stage", []string{tableTypeLabel, stageLabel}},
		{aclRulesMetric, "Number of rules in the ACL table", []string{tableLabel}},
		{aclBoundPortsMetric, "Number of ports the ACL table is bound to", []string{tableLabel}},
		{aclPendingPortsMetric, "Number of configured ports the ACL table still waits for", []string{tableLabel}},
		{aclRulePacketsMetric, "Number of packets that hit the ACL rule", []string{tableLabel, ruleLabel}},
		{aclRuleBytesMetric, "Number of bytes that hit the ACL rule", []string{tableLabel, ruleLabel}},
	} {
		p.gaugeVecs[statItem.name] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: statItem.name,
			Help: statItem.help,
		}, statItem.labels)
	}

	if p.Prometheus != nil {
		// create new registry for statistics
		err := p.Prometheus.NewRegistry(prometheusStatsPath, promhttp.HandlerOpts{ErrorHandling: promhttp.ContinueOnError, ErrorLog: p.Log})
		if err != nil {
			return err
		}

		// register created vectors to prometheus
		for name, metric := range p.gaugeVecs {
			err = p.Prometheus.Register(prometheusStatsPath, metric)
			if err != nil {
				p.Log.Errorf("failed to register %v metric %v", name, err)
				return err
			}
		}
	} else {
		p.Log.Warn("No prometheus registry provided, ACL statistics will not be exported")
	}

	go p.collectStats()

	return nil
}

// Close cleans up the plugin resources
func (p *Plugin) Close() error {
	close(p.closeCh)
	return nil
}

// collectStats periodically refreshes the exported statistics.
func (p *Plugin) collectStats() {
	period := time.Duration(p.config.Period) * time.Second
	for {
		select {
		case <-p.closeCh:
			return
		case <-time.After(period):
			p.updateStats()
		}
	}
}

// updateStats rebuilds the gauges from a fresh snapshot of the ACL state.
// Gauges of tables and rules that disappeared since the previous collection
// are removed from the vectors.
func (p *Plugin) updateStats() {
	states := p.AclOrch.ListTableStates()

	p.Lock()
	defer p.Unlock()

	typeCounts := map[typeStage]int{}
	tableLabels := make(map[string]struct{}, len(states))
	ruleLabels := map[tableRule]struct{}{}

	for _, table := range states {
		typeCounts[typeStage{tableType: table.Type, stage: table.Stage}]++
		tableLabels[table.ID] = struct{}{}

		labels := prometheus.Labels{tableLabel: table.ID}
		p.setGauge(aclRulesMetric, labels, float64(len(table.Rules)))
		p.setGauge(aclBoundPortsMetric, labels, float64(len(table.BoundPorts)))
		p.setGauge(aclPendingPortsMetric, labels, float64(len(table.PendingPorts)))

		for _, rule := range table.Rules {
			if rule.CounterOID == saiclient.NullObjectID {
				continue
			}
			packets, bytes, err := p.Counters.ReadAclCounter(rule.CounterOID)
			if err != nil {
				p.Log.Warnf("Failed to read the counter of ACL rule %s in table %s: %v",
					rule.ID, table.ID, err)
				continue
			}
			ruleLabels[tableRule{table: table.ID, rule: rule.ID}] = struct{}{}
			labels := prometheus.Labels{tableLabel: table.ID, ruleLabel: rule.ID}
			p.setGauge(aclRulePacketsMetric, labels, float64(packets))
			p.setGauge(aclRuleBytesMetric, labels, float64(bytes))
		}
	}

	typeLabels := make(map[typeStage]struct{}, len(typeCounts))
	for key, count := range typeCounts {
		typeLabels[key] = struct{}{}
		p.setGauge(aclTablesMetric, prometheus.Labels{
			tableTypeLabel: key.tableType,
			stageLabel:     key.stage,
		}, float64(count))
	}

	// remove gauge with corresponding labels from each vector
	for key := range p.typeLabels {
		if _, still := typeLabels[key]; !still {
			p.gaugeVecs[aclTablesMetric].Delete(prometheus.Labels{
				tableTypeLabel: key.tableType,
				stageLabel:     key.stage,
			})
		}
	}
	for id := range p.tableLabels {
		if _, still := tableLabels[id]; !still {
			labels := prometheus.Labels{tableLabel: id}
			p.gaugeVecs[aclRulesMetric].Delete(labels)
			p.gaugeVecs[aclBoundPortsMetric].Delete(labels)
			p.gaugeVecs[aclPendingPortsMetric].Delete(labels)
		}
	}
	for key := range p.ruleLabels {
		if _, still := ruleLabels[key]; !still {
			labels := prometheus.Labels{tableLabel: key.table, ruleLabel: key.rule}
			p.gaugeVecs[aclRulePacketsMetric].Delete(labels)
			p.gaugeVecs[aclRuleBytesMetric].Delete(labels)
		}
	}

	p.typeLabels = typeLabels
	p.tableLabels = tableLabels
	p.ruleLabels = ruleLabels
}

func (p *Plugin) setGauge(name string, labels prometheus.Labels, value float64) {
	gauge, err := p.gaugeVecs[name].GetMetricWith(labels)
	if err != nil {
		p.Log.Error(err)
		return
	}
	gauge.Set(value)
}
