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

package aclorch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch/acl"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/saiclient"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssdb"
)

// processRuleSet handles one ACL_RULE entry, keyed "<table>|<rule>". Rules
// arriving before their table are parked and replayed when the table shows
// up; a corrected entry is applied by re-setting the row.
func (p *Plugin) processRuleSet(key string, fields map[string]string) {
	tableID, ruleID, err := splitRuleKey(key)
	if err != nil {
		p.Log.Warnf("Ignoring malformed ACL rule key %q: %v", key, err)
		return
	}

	cfg := acl.NewRuleConfig()
	for field, value := range fields {
		if err := cfg.ParseField(field, value); err != nil {
			p.Log.Warnf("Invalid field %s of ACL rule %s: %v", field, key, err)
			return
		}
	}
	if cfg.Unknown() > 0 {
		p.Log.Debugf("Ignored %d unknown fields of ACL rule %s", cfg.Unknown(), key)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	table, known := p.tables[tableID]
	if !known {
		p.pendingRules[key] = cfg
		p.Log.Debugf("ACL rule %s refers to a not yet known table, deferred", key)
		return
	}
	p.applyRuleLocked(table, ruleID, cfg)
}

func (p *Plugin) processRuleDel(key string) {
	tableID, ruleID, err := splitRuleKey(key)
	if err != nil {
		p.Log.Warnf("Ignoring malformed ACL rule key %q: %v", key, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, deferred := p.pendingRules[key]; deferred {
		delete(p.pendingRules, key)
		return
	}
	table, known := p.tables[tableID]
	if !known {
		return
	}
	if table.RemoveRule(ruleID) == nil {
		return
	}
	p.removeRuleObjectsLocked(table, ruleID)
	p.Log.Infof("Removed ACL rule %s from table %s", ruleID, tableID)
}

// applyRuleLocked validates the rule against the table and programs it.
// A rejected rule leaves both the engine and the hardware untouched.
func (p *Plugin) applyRuleLocked(table *acl.Table, ruleID string, cfg *acl.RuleConfig) {
	rule := cfg.BuildRule(ruleID)
	if table.GetRule(ruleID) != nil {
		p.replaceRuleLocked(table, rule)
		return
	}
	if err := table.AddRule(rule); err != nil {
		p.Log.Warnf("Rejected ACL rule %s of table %s: %v", ruleID, table.ID, err)
		return
	}
	if err := p.programRuleLocked(table, rule); err != nil {
		table.RemoveRule(ruleID)
		p.Log.Errorf("Failed to program ACL rule %s of table %s: %v", ruleID, table.ID, err)
		return
	}
	p.Log.Infof("Created ACL rule %s in table %s", ruleID, table.ID)
}

// programRuleLocked creates the hit counter and the entry for a new rule.
func (p *Plugin) programRuleLocked(table *acl.Table, rule *acl.Rule) error {
	tableOID := saiclient.ObjectID(table.SaiID())
	counter, err := p.Sai.CreateAclCounter(tableOID)
	if err != nil {
		return err
	}
	entry, err := p.Sai.CreateAclEntry(tableOID, entryAttrs(rule, counter))
	if err != nil {
		if removeErr := p.Sai.RemoveAclCounter(counter); removeErr != nil {
			p.Log.Warnf("Leaked counter of ACL rule %s: %v", rule.ID, removeErr)
		}
		return err
	}
	p.ruleObjects[ruleKey(table.ID, rule.ID)] = ruleObjects{entry: entry, counter: counter}
	return nil
}

// replaceRuleLocked updates an existing rule. The hardware entry is
// re-created, the hit counter survives the update.
func (p *Plugin) replaceRuleLocked(table *acl.Table, rule *acl.Rule) {
	if _, err := table.UpdateRule(rule); err != nil {
		p.Log.Warnf("Rejected update of ACL rule %s in table %s: %v", rule.ID, table.ID, err)
		return
	}
	key := ruleKey(table.ID, rule.ID)
	objects := p.ruleObjects[key]
	if objects.entry != saiclient.NullObjectID {
		if err := p.Sai.RemoveAclEntry(objects.entry); err != nil {
			p.Log.Warnf("Failed to remove the replaced entry of ACL rule %s: %v", key, err)
		}
	}
	entry, err := p.Sai.CreateAclEntry(saiclient.ObjectID(table.SaiID()), entryAttrs(rule, objects.counter))
	if err != nil {
		p.Log.Errorf("Failed to program the update of ACL rule %s: %v", key, err)
		return
	}
	objects.entry = entry
	p.ruleObjects[key] = objects
	p.Log.Infof("Updated ACL rule %s in table %s", rule.ID, table.ID)
}

func (p *Plugin) removeRuleObjectsLocked(table *acl.Table, ruleID string) {
	key := ruleKey(table.ID, ruleID)
	objects, programmed := p.ruleObjects[key]
	if !programmed {
		return
	}
	if err := p.Sai.RemoveAclEntry(objects.entry); err != nil {
		p.Log.Errorf("Failed to remove the entry of ACL rule %s: %v", key, err)
	}
	if objects.counter != saiclient.NullObjectID {
		if err := p.Sai.RemoveAclCounter(objects.counter); err != nil {
			p.Log.Errorf("Failed to remove the counter of ACL rule %s: %v", key, err)
		}
	}
	delete(p.ruleObjects, key)
}

// applyPendingRulesLocked replays the rules that were parked while their
// table did not exist yet.
func (p *Plugin) applyPendingRulesLocked(table *acl.Table) {
	prefix := table.ID + swssdb.KeySeparator
	var keys []string
	for key := range p.pendingRules {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		cfg := p.pendingRules[key]
		delete(p.pendingRules, key)
		p.applyRuleLocked(table, strings.TrimPrefix(key, prefix), cfg)
	}
	if len(keys) > 0 {
		p.Log.Infof("Applied %d deferred rules of ACL table %s", len(keys), table.ID)
	}
}

func (p *Plugin) dropPendingRulesLocked(tableID string) {
	prefix := tableID + swssdb.KeySeparator
	for key := range p.pendingRules {
		if strings.HasPrefix(key, prefix) {
			delete(p.pendingRules, key)
		}
	}
}

func ruleKey(tableID, ruleID string) string {
	return tableID + swssdb.KeySeparator + ruleID
}

func splitRuleKey(key string) (tableID, ruleID string, err error) {
	parts := strings.SplitN(key, swssdb.KeySeparator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected <table>%s<rule>", swssdb.KeySeparator)
	}
	return parts[0], parts[1], nil
}

func entryAttrs(rule *acl.Rule, counter saiclient.ObjectID) saiclient.AclEntryAttrs {
	attrs := saiclient.AclEntryAttrs{
		Priority:   rule.Priority,
		Matches:    make(map[string]string, len(rule.Matches)),
		Actions:    make(map[string]string, len(rule.Actions)),
		CounterOID: counter,
	}
	for field, value := range rule.Matches {
		attrs.Matches[field.String()] = value
	}
	for action, value := range rule.Actions {
		attrs.Actions[action.String()] = value
	}
	return attrs
}
