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

package portsorch

import (
	"fmt"
	"time"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
)

// API defines the port state exposed to the other orchestration plugins.
type API interface {
	// GetPortByName returns the port with the given front-panel alias.
	GetPortByName(alias string) (Port, bool)

	// ListPorts returns all known ports, ordered by alias.
	ListPorts() []Port

	// Watch subscribes to port lifecycle events. The callback is invoked
	// synchronously on the plugin's event loop, so it must not block.
	Watch(subscriber string, callback func(PortEvent)) error
}

// Port is the state of one front-panel port.
type Port struct {
	// Alias is the configured name, e.g. "Ethernet0".
	Alias string

	// OID identifies the port object in hardware.
	OID saiclient.ObjectID

	// AdminStatus is true when the port is administratively up.
	AdminStatus bool

	// Speed is the configured speed in Mbps.
	Speed uint32

	// MTU is the configured MTU in bytes.
	MTU uint32
}

// String returns a human-readable representation of the port.
func (p Port) String() string {
	adminStatus := "down"
	if p.AdminStatus {
		adminStatus = "up"
	}
	return fmt.Sprintf("Port <Alias:%s OID:%s Admin:%s Speed:%d MTU:%d>",
		p.Alias, p.OID, adminStatus, p.Speed, p.MTU)
}

// PortEventType identifies the kind of change a PortEvent describes.
type PortEventType int

const (
	// PortAdded signals a newly created port.
	PortAdded PortEventType = iota

	// PortUpdated signals a change of port attributes. The OID is stable
	// across updates.
	PortUpdated

	// PortRemoved signals a deleted port. The carried Port holds the last
	// known state including the now released OID.
	PortRemoved
)

// String converts the event type to a human-readable string.
func (t PortEventType) String() string {
	switch t {
	case PortAdded:
		return "ADD"
	case PortUpdated:
		return "UPDATE"
	case PortRemoved:
		return "REMOVE"
	}
	return "UNKNOWN"
}

// PortEvent is a notification about a port change delivered to subscribers.
type PortEvent struct {
	Type PortEventType
	Port Port
}

// String returns a human-readable representation of the event.
func (e PortEvent) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Port)
}

// ToChan creates a callback that can be passed to the Watch function
// in order to receive notifications through a channel. If the notification
// can not be delivered until timeout, it is dropped.
func ToChan(ch chan PortEvent) func(PortEvent) {
	return func(event PortEvent) {
		select {
		case ch <- event:
		case <-time.After(time.Second):
		}
	}
}
