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

package cmdimpl

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/go-errors/errors"
	"github.com/ligato/cn-infra/config"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

// openDB creates a short-lived connection to the switch databases. Without
// a config file the default redis instance is assumed, the in-process gomap
// store of another process is not reachable.
func openDB(configFile string) (*swssdb.Plugin, error) {
	if configFile == "" {
		configFile = os.Getenv("SWSSDB_CONFIG")
	}

	cfg := swssdb.Config{
		Database: "redis",
		Address:  "127.0.0.1:6379",
	}
	if configFile != "" {
		if err := config.ParseConfigFromYamlFile(configFile, &cfg); err != nil {
			return nil, err
		}
	}

	db := swssdb.NewPlugin(swssdb.UseConf(cfg))
	if err := db.Init(); err != nil {
		return nil, err
	}
	return db, nil
}

// DumpTable will print out all entries of one table of one database.
func DumpTable(configFile, dbName, table string) error {
	db, err := swssdb.ParseDB(dbName)
	if err != nil {
		return err
	}

	plugin, err := openDB(configFile)
	if err != nil {
		return err
	}
	defer plugin.Close()

	broker := plugin.NewBroker(db, table)
	keys, err := broker.Keys()
	if err != nil {
		return errors.Errorf("failed to list %s of %v: %v", table, db, err)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 4, '\t', 0)
	fmt.Fprintf(w, "KEY\tFIELDS\n")
	for _, key := range keys {
		fields, found, err := broker.Get(key)
		if err != nil {
			return errors.Errorf("failed to read %s%s%s: %v",
				table, swssdb.KeySeparator, key, err)
		}
		if !found {
			continue
		}
		fmt.Fprintf(w, "%s%s%s\t%s\n",
			table, swssdb.KeySeparator, key, formatFields(fields))
	}
	return w.Flush()
}

// LoadFile writes a YAML configuration snapshot into the databases. The
// format is the same one the agent accepts as a seed file.
func LoadFile(configFile, path string) error {
	plugin, err := openDB(configFile)
	if err != nil {
		return err
	}
	defer plugin.Close()

	return plugin.Seed(path)
}
