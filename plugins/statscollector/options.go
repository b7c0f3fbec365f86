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
	"github.com/ligato/cn-infra/config"
	"github.com/ligato/cn-infra/logging"
	prometheusplugin "github.com/ligato/cn-infra/rpc/prometheus"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
)

// DefaultPlugin is a default instance of the statscollector plugin.
var DefaultPlugin = *NewPlugin()

// NewPlugin creates a new Plugin with the provided Options.
func NewPlugin(opts ...Option) *Plugin {
	p := &Plugin{}

	p.PluginName = "statscollector"
	p.AclOrch = &aclorch.DefaultPlugin
	p.Counters = &saiclient.DefaultPlugin
	p.Prometheus = &prometheusplugin.DefaultPlugin

	for _, o := range opts {
		o(p)
	}

	if p.Log == nil {
		p.Log = logging.ForPlugin(p.String())
	}
	if p.Cfg == nil {
		p.Cfg = config.ForPlugin(p.String())
	}

	return p
}

// Option is a function that can be used in NewPlugin to customize Plugin.
type Option func(*Plugin)

// UseDeps returns Option that can inject custom dependencies.
func UseDeps(f func(*Deps)) Option {
	return func(p *Plugin) {
		f(&p.Deps)
	}
}

// UseConf returns Option which injects a particular configuration, taking
// precedence over the config file.
func UseConf(conf Config) Option {
	return func(p *Plugin) {
		p.config = &conf
	}
}
