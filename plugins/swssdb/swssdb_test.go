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
	"os"
	"testing"

	"github.com/onsi/gomega"
)

func testPlugin(t *testing.T) *Plugin {
	gomega.RegisterTestingT(t)
	plugin := NewPlugin(UseConf(Config{Database: "gomap"}))
	gomega.Expect(plugin.Init()).To(gomega.BeNil())
	return plugin
}

func TestDatabaseNames(t *testing.T) {
	gomega.RegisterTestingT(t)

	// the numeric values follow the SONiC database map
	gomega.Expect(int(ApplDB)).To(gomega.Equal(0))
	gomega.Expect(int(AsicDB)).To(gomega.Equal(1))
	gomega.Expect(int(CountersDB)).To(gomega.Equal(2))
	gomega.Expect(int(ConfigDB)).To(gomega.Equal(4))
	gomega.Expect(int(StateDB)).To(gomega.Equal(6))

	for _, db := range Databases() {
		parsed, err := ParseDB(db.String())
		gomega.Expect(err).To(gomega.BeNil())
		gomega.Expect(parsed).To(gomega.Equal(db))
	}

	parsed, err := ParseDB(" config_db ")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(parsed).To(gomega.Equal(ConfigDB))

	_, err = ParseDB("FLOW_DB")
	gomega.Expect(err).ToNot(gomega.BeNil())
}

func TestBrokerRoundTrip(t *testing.T) {
	plugin := testPlugin(t)
	defer plugin.Close()

	broker := plugin.NewBroker(ConfigDB, "ACL_TABLE")
	gomega.Expect(broker.Database()).To(gomega.Equal(ConfigDB))
	gomega.Expect(broker.Table()).To(gomega.Equal("ACL_TABLE"))

	// reading an absent entry does not create it
	_, found, err := broker.Get("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(found).To(gomega.BeFalse())
	keys, err := broker.Keys()
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(keys).To(gomega.BeEmpty())

	entry := map[string]string{"type": "L3", "stage": "INGRESS"}
	gomega.Expect(broker.Set("DATAACL", entry)).To(gomega.BeNil())

	// the written entry is detached from the caller's map
	entry["stage"] = "EGRESS"
	read, found, err := broker.Get("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(found).To(gomega.BeTrue())
	gomega.Expect(read).To(gomega.Equal(map[string]string{"type": "L3", "stage": "INGRESS"}))

	gomega.Expect(broker.Set("EVERFLOW", map[string]string{"type": "MIRROR"})).To(gomega.BeNil())
	keys, err = broker.Keys()
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(keys).To(gomega.Equal([]string{"DATAACL", "EVERFLOW"}))

	// an overwrite does not duplicate the key
	gomega.Expect(broker.Set("DATAACL", map[string]string{"type": "L3V6"})).To(gomega.BeNil())
	keys, _ = broker.Keys()
	gomega.Expect(keys).To(gomega.HaveLen(2))

	deleted, err := broker.Del("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(deleted).To(gomega.BeTrue())
	_, found, _ = broker.Get("DATAACL")
	gomega.Expect(found).To(gomega.BeFalse())
	keys, _ = broker.Keys()
	gomega.Expect(keys).To(gomega.Equal([]string{"EVERFLOW"}))

	// deleting an absent entry is reported, not an error
	deleted, err = broker.Del("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(deleted).To(gomega.BeFalse())
}

func TestBrokerDatabaseIsolation(t *testing.T) {
	plugin := testPlugin(t)
	defer plugin.Close()

	configBroker := plugin.NewBroker(ConfigDB, "PORT")
	stateBroker := plugin.NewBroker(StateDB, "PORT")
	gomega.Expect(configBroker.Set("Ethernet0", map[string]string{"speed": "100000"})).To(gomega.BeNil())

	// same table name, different database
	_, found, err := stateBroker.Get("Ethernet0")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(found).To(gomega.BeFalse())
}

func TestWatch(t *testing.T) {
	plugin := testPlugin(t)
	defer plugin.Close()

	aclCh := make(chan TableUpdate, 10)
	subscription, err := plugin.Watch("test", ConfigDB, []string{"ACL_TABLE"}, aclCh)
	gomega.Expect(err).To(gomega.BeNil())

	allCh := make(chan TableUpdate, 10)
	_, err = plugin.Watch("test-all", ConfigDB, nil, allCh)
	gomega.Expect(err).To(gomega.BeNil())

	_, err = plugin.Watch("test-nil", ConfigDB, nil, nil)
	gomega.Expect(err).ToNot(gomega.BeNil())

	broker := plugin.NewBroker(ConfigDB, "ACL_TABLE")
	gomega.Expect(broker.Set("DATAACL", map[string]string{"type": "L3"})).To(gomega.BeNil())

	var update TableUpdate
	gomega.Eventually(aclCh).Should(gomega.Receive(&update))
	gomega.Expect(update.Op).To(gomega.Equal(OpSet))
	gomega.Expect(update.DB).To(gomega.Equal(ConfigDB))
	gomega.Expect(update.Table).To(gomega.Equal("ACL_TABLE"))
	gomega.Expect(update.Key).To(gomega.Equal("DATAACL"))
	gomega.Expect(update.FieldValues).To(gomega.Equal(map[string]string{"type": "L3"}))
	gomega.Eventually(allCh).Should(gomega.Receive())

	// updates of unwatched tables are not delivered
	portBroker := plugin.NewBroker(ConfigDB, "PORT")
	gomega.Expect(portBroker.Set("Ethernet0", map[string]string{"mtu": "9100"})).To(gomega.BeNil())
	gomega.Eventually(allCh).Should(gomega.Receive(&update))
	gomega.Expect(update.Table).To(gomega.Equal("PORT"))
	gomega.Consistently(aclCh).ShouldNot(gomega.Receive())

	// DEL is announced without field-values
	deleted, err := broker.Del("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(deleted).To(gomega.BeTrue())
	gomega.Eventually(aclCh).Should(gomega.Receive(&update))
	gomega.Expect(update.Op).To(gomega.Equal(OpDel))
	gomega.Expect(update.FieldValues).To(gomega.BeNil())

	// a closed subscription stops receiving
	gomega.Expect(subscription.Close()).To(gomega.BeNil())
	gomega.Expect(broker.Set("EVERFLOW", map[string]string{"type": "MIRROR"})).To(gomega.BeNil())
	gomega.Eventually(allCh).Should(gomega.Receive())
	gomega.Consistently(aclCh).ShouldNot(gomega.Receive())
}

func TestSeed(t *testing.T) {
	plugin := testPlugin(t)
	defer plugin.Close()

	seedFile, err := ioutil.TempFile("", "swssdb-seed")
	gomega.Expect(err).To(gomega.BeNil())
	defer os.Remove(seedFile.Name())
	_, err = seedFile.WriteString(`
CONFIG_DB:
  ACL_TABLE:
    DATAACL:
      type: L3
      stage: INGRESS
      ports: Ethernet0,Ethernet4
  PORT:
    Ethernet0:
      speed: "100000"
STATE_DB:
  PORT_TABLE:
    Ethernet0:
      oper_status: up
`)
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(seedFile.Close()).To(gomega.BeNil())

	watchCh := make(chan TableUpdate, 10)
	_, err = plugin.Watch("test", ConfigDB, []string{"ACL_TABLE"}, watchCh)
	gomega.Expect(err).To(gomega.BeNil())

	gomega.Expect(plugin.Seed(seedFile.Name())).To(gomega.BeNil())

	entry, found, err := plugin.NewBroker(ConfigDB, "ACL_TABLE").Get("DATAACL")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(found).To(gomega.BeTrue())
	gomega.Expect(entry["type"]).To(gomega.Equal("L3"))
	gomega.Expect(entry["ports"]).To(gomega.Equal("Ethernet0,Ethernet4"))

	_, found, err = plugin.NewBroker(StateDB, "PORT_TABLE").Get("Ethernet0")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(found).To(gomega.BeTrue())

	// watchers observe the seeded entries as ordinary SETs
	var update TableUpdate
	gomega.Eventually(watchCh).Should(gomega.Receive(&update))
	gomega.Expect(update.Op).To(gomega.Equal(OpSet))
	gomega.Expect(update.Key).To(gomega.Equal("DATAACL"))
}

func TestSeedRejectsUnknownDatabase(t *testing.T) {
	plugin := testPlugin(t)
	defer plugin.Close()

	seedFile, err := ioutil.TempFile("", "swssdb-seed")
	gomega.Expect(err).To(gomega.BeNil())
	defer os.Remove(seedFile.Name())
	_, err = seedFile.WriteString("FLOW_DB:\n  FLOW:\n    f1:\n      rate: \"10\"\n")
	gomega.Expect(err).To(gomega.BeNil())
	gomega.Expect(seedFile.Close()).To(gomega.BeNil())

	err = plugin.Seed(seedFile.Name())
	gomega.Expect(err).ToNot(gomega.BeNil())
	gomega.Expect(err.Error()).To(gomega.ContainSubstring("FLOW_DB"))
}
