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

package swssdb

import (
	"sync"

	"github.com/ligato/cn-infra/logging"
)

// eventBufferSize bounds the number of updates queued between the brokers
// and the dispatcher.
const eventBufferSize = 1024

// watchRegistry fans broker updates out to subscriptions. Brokers publish
// into a single buffered channel, one dispatcher goroutine delivers to the
// matching subscribers. Delivery to a subscriber never blocks: a full
// subscriber channel means the update is logged and dropped.
type watchRegistry struct {
	log    logging.Logger
	events chan TableUpdate

	mu            sync.Mutex
	subscriptions map[*Subscription]struct{}

	wg     sync.WaitGroup
	stopCh chan struct{}
}

func newWatchRegistry(log logging.Logger) *watchRegistry {
	registry := &watchRegistry{
		log:           log,
		events:        make(chan TableUpdate, eventBufferSize),
		subscriptions: make(map[*Subscription]struct{}),
		stopCh:        make(chan struct{}),
	}
	registry.wg.Add(1)
	go registry.dispatchLoop()
	return registry
}

func (r *watchRegistry) subscribe(subscriber string, db DB, tables []string, ch chan<- TableUpdate) *Subscription {
	subscription := &Subscription{
		registry:   r,
		subscriber: subscriber,
		db:         db,
		tables:     make(map[string]struct{}, len(tables)),
		ch:         ch,
	}
	for _, table := range tables {
		subscription.tables[table] = struct{}{}
	}
	r.mu.Lock()
	r.subscriptions[subscription] = struct{}{}
	r.mu.Unlock()
	return subscription
}

// publish hands an update to the dispatcher. After close the update is
// dropped, so that late broker writes do not block.
func (r *watchRegistry) publish(update TableUpdate) {
	select {
	case r.events <- update:
	case <-r.stopCh:
	}
}

func (r *watchRegistry) dispatchLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopCh:
			return
		case update := <-r.events:
			r.dispatch(update)
		}
	}
}

func (r *watchRegistry) dispatch(update TableUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for subscription := range r.subscriptions {
		if !subscription.matches(update) {
			continue
		}
		select {
		case subscription.ch <- update:
		default:
			r.log.WithFields(logging.Fields{
				"subscriber": subscription.subscriber,
				"update":     update.String(),
			}).Warn("Subscriber channel is full, dropping update")
		}
	}
}

func (r *watchRegistry) close() {
	close(r.stopCh)
	r.wg.Wait()
}

// Subscription is one registered watcher. Updates matching the subscribed
// database and tables are delivered in publish order.
type Subscription struct {
	registry   *watchRegistry
	subscriber string
	db         DB
	tables     map[string]struct{}
	ch         chan<- TableUpdate
}

func (s *Subscription) matches(update TableUpdate) bool {
	if update.DB != s.db {
		return false
	}
	if len(s.tables) == 0 {
		return true
	}
	_, watched := s.tables[update.Table]
	return watched
}

// Close unregisters the subscription. Updates already handed to the
// dispatcher may still arrive on the channel afterwards.
func (s *Subscription) Close() error {
	s.registry.mu.Lock()
	delete(s.registry.subscriptions, s)
	s.registry.mu.Unlock()
	return nil
}
