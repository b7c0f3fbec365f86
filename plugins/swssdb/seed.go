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
	"io/ioutil"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// seedSnapshot is the schema of the seed file:
// database name -> table -> key -> field-values.
type seedSnapshot map[string]map[string]map[string]map[string]string

// Seed loads a YAML snapshot and writes it through brokers, so that watchers
// observe the seeded entries as ordinary SET updates. Entries are written in
// lexical order of database, table and key.
func (p *Plugin) Seed(path string) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read seed file %s", path)
	}
	snapshot := seedSnapshot{}
	if err := yaml.Unmarshal(raw, &snapshot); err != nil {
		return errors.Wrapf(err, "failed to parse seed file %s", path)
	}

	dbNames := make([]string, 0, len(snapshot))
	for dbName := range snapshot {
		dbNames = append(dbNames, dbName)
	}
	sort.Strings(dbNames)

	seeded := 0
	for _, dbName := range dbNames {
		db, err := ParseDB(dbName)
		if err != nil {
			return errors.Wrapf(err, "seed file %s", path)
		}
		tables := snapshot[dbName]
		tableNames := make([]string, 0, len(tables))
		for table := range tables {
			tableNames = append(tableNames, table)
		}
		sort.Strings(tableNames)

		for _, table := range tableNames {
			broker := p.NewBroker(db, table)
			entries := tables[table]
			keys := make([]string, 0, len(entries))
			for key := range entries {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				if err := broker.Set(key, entries[key]); err != nil {
					return err
				}
				seeded++
			}
		}
	}
	p.Log.Infof("Seeded %d entries from %s", seeded, path)
	return nil
}
