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

// LinkEvent describes the state of one kernel network link.
type LinkEvent struct {
	// Name of the network interface.
	Name string

	// Index of the network interface.
	Index int

	// OperUp tells whether the link is operationally up.
	OperUp bool

	// Deleted is true when the link was removed from the kernel.
	Deleted bool
}

// LinkWatcher defines the API of the kernel link notification source needed
// by the plugin. The interface allows to inject a mock link source in the
// unit tests.
type LinkWatcher interface {
	// ListLinks returns the currently known links.
	ListLinks() ([]LinkEvent, error)

	// WatchLinks streams link changes into ch until done is closed.
	// The error is returned when the notification source cannot be opened
	// at all, later failures close the stream silently.
	WatchLinks(ch chan<- LinkEvent, done <-chan struct{}) error
}

// SpeedProbe reads the negotiated speed of a network interface in Mb/s.
// The interface allows to inject a mock probe in the unit tests.
type SpeedProbe interface {
	Speed(name string) (uint32, error)
}
