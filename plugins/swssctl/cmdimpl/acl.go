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
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/go-errors/errors"

	"github.com/192d-Wing/sonic-swss-sub002/plugins/aclorch"
	"github.com/192d-Wing/sonic-swss-sub002/plugins/swssctl/remote"
)

// PrintTables will print out all of the ACL tables of the agent in a table
// format.
func PrintTables(client *remote.HTTPClient) error {
	body, err := client.Get(getTablesCmd)
	if err != nil {
		return err
	}
	var tables []aclorch.TableState
	if err := json.Unmarshal(body, &tables); err != nil {
		return errors.Errorf("failed to decode ACL tables: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 4, '\t', 0)
	fmt.Fprintf(w, "ID\tTYPE\tSTAGE\tSTATUS\tOID\tBOUND\tPENDING\tRULES\tDESCRIPTION\n")
	for _, table := range tables {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			table.ID, table.Type, table.Stage, table.Status, table.OID,
			len(table.BoundPorts), len(table.PendingPorts), len(table.Rules),
			table.Description)
	}
	return w.Flush()
}

// PrintRules will print out the ACL rules of the agent, either all of them
// or only those of the given table.
func PrintRules(client *remote.HTTPClient, table string) error {
	body, err := client.Get(getRulesCmd)
	if err != nil {
		return err
	}
	var rules []aclorch.RuleState
	if err := json.Unmarshal(body, &rules); err != nil {
		return errors.Errorf("failed to decode ACL rules: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 4, '\t', 0)
	fmt.Fprintf(w, "TABLE\tRULE\tPRIORITY\tMATCHES\tACTIONS\n")
	for _, rule := range rules {
		if table != "" && rule.Table != table {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			rule.Table, rule.ID, rule.Priority,
			formatFields(rule.Matches), formatFields(rule.Actions))
	}
	return w.Flush()
}

// PrintTableTypes will print out the ACL table types known to the agent,
// both the built-in and the user defined ones.
func PrintTableTypes(client *remote.HTTPClient) error {
	body, err := client.Get(getTableTypesCmd)
	if err != nil {
		return err
	}
	var types []aclorch.TableTypeState
	if err := json.Unmarshal(body, &types); err != nil {
		return errors.Errorf("failed to decode ACL table types: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 4, '\t', 0)
	fmt.Fprintf(w, "NAME\tBUILTIN\tBIND POINTS\tSTAGES\tMATCHES\tACTIONS\n")
	for _, tableType := range types {
		stages := strings.Join(tableType.Stages, ",")
		if stages == "" {
			stages = "any"
		}
		fmt.Fprintf(w, "%s\t%t\t%s\t%s\t%s\t%s\n",
			tableType.Name, tableType.Builtin,
			strings.Join(tableType.BindPoints, ","), stages,
			strings.Join(tableType.Matches, ","),
			strings.Join(tableType.Actions, ","))
	}
	return w.Flush()
}

// formatFields renders a match or action map as a stable comma-separated
// list.
func formatFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+fields[name])
	}
	return strings.Join(parts, ",")
}
