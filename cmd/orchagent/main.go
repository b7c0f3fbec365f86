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

package main

import (
	"github.com/ligato/cn-infra/agent"
	"github.com/ligato/cn-infra/logging/logrus"
	"github.com/ligato/cn-infra/rpc/prometheus"
	"github.com/ligato/cn-infra/rpc/rest"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/linksync"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/portsorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/statscollector"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

// OrchAgent programs the switch hardware from the configuration database.
// It orchestrates ports and ACLs, mirrors the kernel link state and exposes
// the resulting state over REST and prometheus.
type OrchAgent struct {
	HTTP       *rest.Plugin
	Prometheus *prometheus.Plugin
	SwssDB     *swssdb.Plugin
	SaiClient  *saiclient.Plugin
	PortsOrch  *portsorch.Plugin
	AclOrch    *aclorch.Plugin
	Stats      *statscollector.Plugin
	LinkSync   *linksync.Plugin
}

func (a *OrchAgent) String() string {
	return "OrchAgent"
}

// Init is called at startup phase. Method added in order to implement Plugin interface.
func (a *OrchAgent) Init() error {
	return nil
}

// Close is called at cleanup phase. Method added in order to implement Plugin interface.
func (a *OrchAgent) Close() error {
	return nil
}

func main() {
	// the default plugin instances are already wired to each other, see
	// the options.go of each plugin
	orchAgent := &OrchAgent{
		HTTP:       &rest.DefaultPlugin,
		Prometheus: &prometheus.DefaultPlugin,
		SwssDB:     &swssdb.DefaultPlugin,
		SaiClient:  &saiclient.DefaultPlugin,
		PortsOrch:  &portsorch.DefaultPlugin,
		AclOrch:    &aclorch.DefaultPlugin,
		Stats:      &statscollector.DefaultPlugin,
		LinkSync:   &linksync.DefaultPlugin,
	}

	a := agent.NewAgent(agent.AllPlugins(orchAgent))
	if err := a.Run(); err != nil {
		logrus.DefaultLogger().Fatal(err)
	}
}
