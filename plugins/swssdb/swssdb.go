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

// Package swssdb provides access to the switch state databases (config,
// application, state, ASIC and counters DB) through per-table brokers, plus
// a watch API delivering SET/DEL updates to subscribed plugins.
package swssdb

import (
	"fmt"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/utils/safeclose"
	"github.com/philippgille/gokv"
	"github.com/philippgille/gokv/gomap"
	"github.com/philippgille/gokv/redis"
	"github.com/pkg/errors"
)

// Plugin implements access to the switch state databases. One store client
// is opened per database: either a redis client (database number = DB enum
// value, matching the SONiC layout) or an in-process gomap store for local
// runs and tests.
type Plugin struct {
	Deps

	config *Config

	stores   map[DB]gokv.Store
	registry *watchRegistry
}

// Deps lists dependencies of the swssdb plugin.
type Deps struct {
	infra.PluginDeps
}

// Config holds the swssdb plugin configuration.
type Config struct {
	// Database selects the store backend: "gomap" (in-process, the
	// default) or "redis".
	Database string `json:"database"`

	// Address of the redis server.
	Address string `json:"address"`

	// Password of the redis server, empty for none.
	Password string `json:"password"`

	// SeedFile optionally names a YAML snapshot written into the
	// databases during AfterInit.
	SeedFile string `json:"seedFile"`
}

const (
	backendGomap = "gomap"
	backendRedis = "redis"
)

var errNoChannel = fmt.Errorf("watch channel is not provided")

func defaultConfig() *Config {
	return &Config{
		Database: backendGomap,
		Address:  "localhost:6379",
	}
}

// Init loads the configuration, opens one store client per database and
// starts the update dispatcher.
func (p *Plugin) Init() error {
	if p.config == nil {
		p.config = defaultConfig()
		if p.Cfg != nil {
			if _, err := p.Cfg.LoadValue(p.config); err != nil {
				return err
			}
		}
	}
	if p.config.Database == "" {
		p.config.Database = backendGomap
	}
	p.Log.Infof("SwssDB configuration: %+v", *p.config)

	p.stores = make(map[DB]gokv.Store)
	for _, db := range Databases() {
		store, err := p.openStore(db)
		if err != nil {
			return err
		}
		p.stores[db] = store
	}
	p.registry = newWatchRegistry(p.Log)
	return nil
}

// AfterInit seeds the databases when a seed file is configured. Watchers
// registered during Init observe the seeded entries.
func (p *Plugin) AfterInit() error {
	if p.config.SeedFile == "" {
		return nil
	}
	return p.Seed(p.config.SeedFile)
}

// Close stops the dispatcher and closes the store clients.
func (p *Plugin) Close() error {
	if p.registry != nil {
		p.registry.close()
	}
	closables := make([]interface{}, 0, len(p.stores))
	for _, store := range p.stores {
		closables = append(closables, store)
	}
	return safeclose.Close(closables...)
}

// NewBroker returns hash-table access bound to one table of one database.
func (p *Plugin) NewBroker(db DB, table string) *Broker {
	return &Broker{
		store:    p.stores[db],
		registry: p.registry,
		db:       db,
		table:    table,
	}
}

// Watch subscribes <ch> to updates of the listed tables of <db>. An empty
// table list subscribes to every table of the database.
func (p *Plugin) Watch(subscriber string, db DB, tables []string, ch chan<- TableUpdate) (*Subscription, error) {
	if ch == nil {
		return nil, errNoChannel
	}
	return p.registry.subscribe(subscriber, db, tables, ch), nil
}

func (p *Plugin) openStore(db DB) (gokv.Store, error) {
	switch p.config.Database {
	case backendGomap:
		return gomap.NewStore(gomap.DefaultOptions), nil
	case backendRedis:
		options := redis.DefaultOptions
		options.Address = p.config.Address
		options.Password = p.config.Password
		options.DB = int(db)
		client, err := redis.NewClient(options)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to connect to redis database %s", db)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown store backend: %q", p.config.Database)
}
