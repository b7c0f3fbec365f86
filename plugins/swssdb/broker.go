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
	"sort"

	"github.com/philippgille/gokv"
	"github.com/pkg/errors"
)

// KeySeparator separates the table name from the entry key in the store,
// and compound entry keys into their components.
const KeySeparator = "|"

// Broker provides hash-table access to one table of one database. Entries
// are stored under "TABLE|key"; the set of known keys is kept as an index
// map under the bare table name, so that Keys does not have to scan the
// store. A read of an absent entry never creates it.
//
// The broker serializes nothing: every table is expected to have a single
// writing daemon, concurrent writers of the same table would race on the
// key index.
type Broker struct {
	store    gokv.Store
	registry *watchRegistry
	db       DB
	table    string
}

// keyIndex is the per-table set of known entry keys.
type keyIndex map[string]bool

// Database returns the database the broker is bound to.
func (b *Broker) Database() DB {
	return b.db
}

// Table returns the table name the broker is bound to.
func (b *Broker) Table() string {
	return b.table
}

// Set writes the entry under the given key, overwriting a previous revision,
// and announces it to watchers. The field-value map is copied, the caller
// may reuse it.
func (b *Broker) Set(key string, fieldValues map[string]string) error {
	entry := make(map[string]string, len(fieldValues))
	for field, value := range fieldValues {
		entry[field] = value
	}
	if err := b.store.Set(b.entryKey(key), entry); err != nil {
		return errors.Wrapf(err, "failed to write %s %s%s%s",
			b.db, b.table, KeySeparator, key)
	}
	index, err := b.readIndex()
	if err != nil {
		return err
	}
	if !index[key] {
		index[key] = true
		if err := b.writeIndex(index); err != nil {
			return err
		}
	}
	b.registry.publish(TableUpdate{
		DB:          b.db,
		Table:       b.table,
		Key:         key,
		Op:          OpSet,
		FieldValues: entry,
	})
	return nil
}

// Get reads the entry under the given key. Returns false if there is none.
func (b *Broker) Get(key string) (fieldValues map[string]string, found bool, err error) {
	entry := make(map[string]string)
	found, err = b.store.Get(b.entryKey(key), &entry)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to read %s %s%s%s",
			b.db, b.table, KeySeparator, key)
	}
	if !found {
		return nil, false, nil
	}
	return entry, true, nil
}

// Del removes the entry under the given key and announces the removal to
// watchers. Returns false without announcing anything if there is no such
// entry.
func (b *Broker) Del(key string) (bool, error) {
	index, err := b.readIndex()
	if err != nil {
		return false, err
	}
	if !index[key] {
		return false, nil
	}
	if err := b.store.Delete(b.entryKey(key)); err != nil {
		return false, errors.Wrapf(err, "failed to delete %s %s%s%s",
			b.db, b.table, KeySeparator, key)
	}
	delete(index, key)
	if err := b.writeIndex(index); err != nil {
		return false, err
	}
	b.registry.publish(TableUpdate{
		DB:    b.db,
		Table: b.table,
		Key:   key,
		Op:    OpDel,
	})
	return true, nil
}

// Keys returns the sorted keys of all entries in the table.
func (b *Broker) Keys() ([]string, error) {
	index, err := b.readIndex()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Broker) entryKey(key string) string {
	return b.table + KeySeparator + key
}

func (b *Broker) readIndex() (keyIndex, error) {
	index := make(keyIndex)
	if _, err := b.store.Get(b.table, &index); err != nil {
		return nil, errors.Wrapf(err, "failed to read the key index of %s %s",
			b.db, b.table)
	}
	return index, nil
}

func (b *Broker) writeIndex(index keyIndex) error {
	if len(index) == 0 {
		if err := b.store.Delete(b.table); err != nil {
			return errors.Wrapf(err, "failed to drop the key index of %s %s",
				b.db, b.table)
		}
		return nil
	}
	if err := b.store.Set(b.table, index); err != nil {
		return errors.Wrapf(err, "failed to write the key index of %s %s",
			b.db, b.table)
	}
	return nil
}
