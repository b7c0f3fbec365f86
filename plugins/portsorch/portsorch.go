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

// Package portsorch tracks front-panel ports. It watches the PORT table in
// the configuration database, programs the ports into hardware and exposes
// the resulting state to the other orchestration plugins, which cannot
// assume a port exists just because configuration references it.
package portsorch

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ligato/cn-infra/infra"
	"github.com/ligato/cn-infra/utils/safeclose"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

const (
	// portTable is the watched ConfigDB table.
	portTable = "PORT"

	// eventBufferSize is the size of the port update channel.
	eventBufferSize = 256

	// defaultMTU applies until the configuration says otherwise.
	defaultMTU = 9100
)

var errMissingDep = fmt.Errorf("missing mandatory dependency")

// Plugin maintains the set of known ports.
type Plugin struct {
	Deps

	mu       sync.RWMutex
	ports    map[string]*Port
	watchers map[string]func(PortEvent)

	updates      chan swssdb.TableUpdate
	subscription *swssdb.Subscription

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Deps lists dependencies of the portsorch plugin.
type Deps struct {
	infra.PluginDeps

	SwssDB swssdb.API
	Sai    saiclient.PortAPI
}

// Init loads the ports already present in the configuration database and
// starts watching for changes.
func (p *Plugin) Init() error {
	if p.SwssDB == nil || p.Sai == nil {
		return errMissingDep
	}
	p.ports = make(map[string]*Port)
	p.watchers = make(map[string]func(PortEvent))
	p.updates = make(chan swssdb.TableUpdate, eventBufferSize)

	var err error
	p.subscription, err = p.SwssDB.Watch(p.String(), swssdb.ConfigDB,
		[]string{portTable}, p.updates)
	if err != nil {
		return err
	}

	if err := p.resync(); err != nil {
		return err
	}

	var ctx context.Context
	ctx, p.cancel = context.WithCancel(context.Background())
	go p.watchEvents(ctx)

	return nil
}

// Close stops watching for port changes.
func (p *Plugin) Close() error {
	p.cancel()
	p.wg.Wait()
	return safeclose.Close(p.subscription)
}

// GetPortByName returns the port with the given front-panel alias.
func (p *Plugin) GetPortByName(alias string) (Port, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	port, known := p.ports[alias]
	if !known {
		return Port{}, false
	}
	return *port, true
}

// ListPorts returns all known ports, ordered by alias.
func (p *Plugin) ListPorts() []Port {
	p.mu.RLock()
	defer p.mu.RUnlock()
	aliases := make([]string, 0, len(p.ports))
	for alias := range p.ports {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	ports := make([]Port, 0, len(aliases))
	for _, alias := range aliases {
		ports = append(ports, *p.ports[alias])
	}
	return ports
}

// Watch subscribes to port lifecycle events.
func (p *Plugin) Watch(subscriber string, callback func(PortEvent)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, registered := p.watchers[subscriber]; registered {
		return fmt.Errorf("subscriber %s is already watching ports", subscriber)
	}
	p.watchers[subscriber] = callback
	return nil
}

// resync replays the PORT table content present before the watch started.
// Updates racing with the resync are re-delivered through the subscription
// and applied idempotently.
func (p *Plugin) resync() error {
	broker := p.SwssDB.NewBroker(swssdb.ConfigDB, portTable)
	aliases, err := broker.Keys()
	if err != nil {
		return err
	}
	for _, alias := range aliases {
		fields, found, err := broker.Get(alias)
		if err != nil {
			return err
		}
		if !found {
			continue
		}
		p.processPortSet(alias, fields)
	}
	p.Log.Infof("Resynced %d ports", len(aliases))
	return nil
}

func (p *Plugin) watchEvents(ctx context.Context) {
	p.wg.Add(1)
	defer p.wg.Done()

	for {
		select {
		case update := <-p.updates:
			switch update.Op {
			case swssdb.OpSet:
				p.processPortSet(update.Key, update.FieldValues)
			case swssdb.OpDel:
				p.processPortDel(update.Key)
			}

		case <-ctx.Done():
			p.Log.Debug("Stop watching port configuration")
			return
		}
	}
}

func (p *Plugin) processPortSet(alias string, fields map[string]string) {
	p.mu.Lock()
	port, known := p.ports[alias]
	if !known {
		oid, err := p.Sai.CreatePort(alias)
		if err != nil {
			p.mu.Unlock()
			p.Log.Errorf("Failed to create port %s: %v", alias, err)
			return
		}
		port = &Port{Alias: alias, OID: oid, MTU: defaultMTU}
		p.ports[alias] = port
	}
	changed := p.applyPortFields(port, fields)
	event := PortEvent{Type: PortUpdated, Port: *port}
	if !known {
		event.Type = PortAdded
	}
	p.mu.Unlock()

	if !known {
		p.Log.Infof("Port added: %v", event.Port)
		p.notify(event)
	} else if changed {
		p.notify(event)
	}
}

func (p *Plugin) processPortDel(alias string) {
	p.mu.Lock()
	port, known := p.ports[alias]
	if !known {
		p.mu.Unlock()
		return
	}
	delete(p.ports, alias)
	p.mu.Unlock()

	if err := p.Sai.RemovePort(port.OID); err != nil {
		p.Log.Errorf("Failed to remove port %s: %v", alias, err)
	}
	p.Log.Infof("Port removed: %v", *port)
	p.notify(PortEvent{Type: PortRemoved, Port: *port})
}

// applyPortFields merges a fieldset into the port, returning true if any
// attribute changed. Unparsable values are skipped.
func (p *Plugin) applyPortFields(port *Port, fields map[string]string) (changed bool) {
	for field, value := range fields {
		switch field {
		case "admin_status":
			adminUp := value == "up"
			if port.AdminStatus != adminUp {
				port.AdminStatus = adminUp
				changed = true
			}
		case "speed":
			speed, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				p.Log.Warnf("Ignoring invalid speed %q of port %s", value, port.Alias)
				continue
			}
			if port.Speed != uint32(speed) {
				port.Speed = uint32(speed)
				changed = true
			}
		case "mtu":
			mtu, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				p.Log.Warnf("Ignoring invalid MTU %q of port %s", value, port.Alias)
				continue
			}
			if port.MTU != uint32(mtu) {
				port.MTU = uint32(mtu)
				changed = true
			}
		}
	}
	return changed
}

// notify invokes the registered callbacks outside of the state lock.
func (p *Plugin) notify(event PortEvent) {
	p.mu.RLock()
	callbacks := make([]func(PortEvent), 0, len(p.watchers))
	for _, callback := range p.watchers {
		callbacks = append(callbacks, callback)
	}
	p.mu.RUnlock()

	for _, callback := range callbacks {
		callback(event)
	}
}
