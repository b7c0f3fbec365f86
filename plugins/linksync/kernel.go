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

package linksync

import (
	"net"

	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// netlinkWatcher implements LinkWatcher on top of the netlink socket.
type netlinkWatcher struct{}

func (w *netlinkWatcher) ListLinks() ([]LinkEvent, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}
	events := make([]LinkEvent, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		events = append(events, LinkEvent{
			Name:   attrs.Name,
			Index:  attrs.Index,
			OperUp: operUp(attrs),
		})
	}
	return events, nil
}

func (w *netlinkWatcher) WatchLinks(ch chan<- LinkEvent, done <-chan struct{}) error {
	updates := make(chan netlink.LinkUpdate, eventBufferSize)
	if err := netlink.LinkSubscribe(updates, done); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				attrs := update.Attrs()
				event := LinkEvent{
					Name:    attrs.Name,
					Index:   attrs.Index,
					OperUp:  operUp(attrs),
					Deleted: update.Header.Type == unix.RTM_DELLINK,
				}
				select {
				case ch <- event:
				case <-done:
					return
				}

			case <-done:
				return
			}
		}
	}()
	return nil
}

// operUp decides whether a link is operationally up. Virtual links often
// stay in the unknown state forever, for those the admin flag is used.
func operUp(attrs *netlink.LinkAttrs) bool {
	if attrs.OperState == netlink.OperUnknown {
		return attrs.Flags&net.FlagUp != 0
	}
	return attrs.OperState == netlink.OperUp
}

// ethtoolProbe implements SpeedProbe using the ethtool ioctl.
type ethtoolProbe struct{}

func (ethtoolProbe) Speed(name string) (uint32, error) {
	ecmd := &ethtool.EthtoolCmd{}
	return ecmd.CmdGet(name)
}
