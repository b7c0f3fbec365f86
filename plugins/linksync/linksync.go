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

// Package linksync mirrors the kernel state of the front-panel ports into
// the PORT_TABLE of the state database. Each port row carries the
// operational status and, when the kernel knows it, the negotiated speed.
package linksync

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ligato/cn-infra/infra"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

const (
	// state database table fed by this plugin
	portTable = "PORT_TABLE"

	// only front-panel ports are mirrored
	portNamePrefix = "Ethernet"

	eventBufferSize = 256
)

var errMissingDep = fmt.Errorf("missing mandatory dependency")

// Plugin watches the kernel links and publishes their state.
type Plugin struct {
	Deps

	stateBroker *swssdb.Broker
	events      chan LinkEvent
	disabled    bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Deps groups the dependencies of the Plugin.
type Deps struct {
	infra.PluginDeps

	// SwssDB is the multi-namespace switch database.
	SwssDB swssdb.API

	// Links provides the kernel link notifications. Left nil, the real
	// netlink socket is attached during Init.
	Links LinkWatcher

	// Speeds reads the negotiated port speeds. Left nil, the ethtool ioctl
	// is used.
	Speeds SpeedProbe
}

// Init subscribes to the link notifications and publishes the initial state.
// When the notification source cannot be opened (typically for a lack of
// privileges), the plugin logs a warning and stays idle instead of failing
// the agent startup.
func (p *Plugin) Init() error {
	if p.SwssDB == nil {
		return errMissingDep
	}
	if p.Links == nil {
		p.Links = &netlinkWatcher{}
	}
	if p.Speeds == nil {
		p.Speeds = &ethtoolProbe{}
	}

	p.stateBroker = p.SwssDB.NewBroker(swssdb.StateDB, portTable)
	p.events = make(chan LinkEvent, eventBufferSize)

	var ctx context.Context
	ctx, p.cancel = context.WithCancel(context.Background())

	if err := p.Links.WatchLinks(p.events, ctx.Done()); err != nil {
		p.Log.Warnf("Kernel link notifications are not available, "+
			"link state will not be mirrored: %v", err)
		p.disabled = true
		p.cancel()
		return nil
	}

	links, err := p.Links.ListLinks()
	if err != nil {
		p.Log.Warnf("Failed to list kernel links: %v", err)
	}
	for _, link := range links {
		p.publishLink(link)
	}
	p.Log.Debugf("Resynced %d kernel links", len(links))

	go p.watchLinks(ctx)
	return nil
}

// Close stops watching the kernel links.
func (p *Plugin) Close() error {
	p.cancel()
	p.wg.Wait()
	return nil
}

// Disabled returns true when the link notification source could not be
// opened and the plugin idles.
func (p *Plugin) Disabled() bool {
	return p.disabled
}

func (p *Plugin) watchLinks(ctx context.Context) {
	p.wg.Add(1)
	defer p.wg.Done()

	for {
		select {
		case event := <-p.events:
			p.publishLink(event)

		case <-ctx.Done():
			p.Log.Debug("Stop watching kernel links")
			return
		}
	}
}

func (p *Plugin) publishLink(event LinkEvent) {
	if !strings.HasPrefix(event.Name, portNamePrefix) {
		return
	}
	if event.Deleted {
		if _, err := p.stateBroker.Del(event.Name); err != nil {
			p.Log.Warnf("Failed to withdraw state of port %s: %v", event.Name, err)
		}
		return
	}

	fields := map[string]string{
		"oper_status": operStatus(event.OperUp),
	}
	if speed, err := p.Speeds.Speed(event.Name); err != nil {
		p.Log.Debugf("Cannot read speed of port %s: %v", event.Name, err)
	} else if validSpeed(speed) {
		fields["speed"] = strconv.FormatUint(uint64(speed), 10)
	}

	if err := p.stateBroker.Set(event.Name, fields); err != nil {
		p.Log.Warnf("Failed to publish state of port %s: %v", event.Name, err)
		return
	}
	p.Log.Debugf("Mirrored state of port %s: %v", event.Name, fields)
}

func operStatus(up bool) string {
	if up {
		return "up"
	}
	return "down"
}

// validSpeed filters the placeholder values the kernel reports for links
// with no negotiated speed.
func validSpeed(speed uint32) bool {
	return speed != 0 && speed != math.MaxUint16 && speed != math.MaxUint32
}
