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
	"net/http"

	"github.com/unrolled/render"
)

const (
	// prefix used for REST urls of the ACL orchestrator.
	urlPrefix = "/acl/"

	// tablesURL is URL used to obtain the ACL table states.
	// The optional "name" argument restricts the dump to a single table.
	tablesURL = urlPrefix + "tables"

	// rulesURL is URL used to obtain the ACL rule states across all tables.
	rulesURL = urlPrefix + "rules"

	// tableTypesURL is URL used to obtain the usable table types.
	tableTypesURL = urlPrefix + "table-types"

	nameArg = "name"
)

// errorString wraps string representation of an error that, unlike the
// original error, can be marshalled.
type errorString struct {
	Error string
}

// registerHandlers registers all supported REST APIs.
func (p *Plugin) registerHandlers() {
	if p.HTTPHandlers == nil {
		p.Log.Warn("No http handler provided, skipping registration of ACL REST handlers")
		return
	}
	p.HTTPHandlers.RegisterHTTPHandler(tablesURL, p.tablesGetHandler, "GET")
	p.HTTPHandlers.RegisterHTTPHandler(rulesURL, p.rulesGetHandler, "GET")
	p.HTTPHandlers.RegisterHTTPHandler(tableTypesURL, p.tableTypesGetHandler, "GET")
}

// tablesGetHandler is the GET handler for the "tables" API.
func (p *Plugin) tablesGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		args := req.URL.Query()
		if name, withName := args[nameArg]; withName && len(name) == 1 {
			state, known := p.GetTableState(name[0])
			if !known {
				formatter.JSON(w, http.StatusNotFound,
					errorString{"no such ACL table: " + name[0]})
				return
			}
			formatter.JSON(w, http.StatusOK, state)
			return
		}
		formatter.JSON(w, http.StatusOK, p.ListTableStates())
	}
}

// rulesGetHandler is the GET handler for the "rules" API.
func (p *Plugin) rulesGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		rules := []RuleState{}
		for _, table := range p.ListTableStates() {
			rules = append(rules, table.Rules...)
		}
		formatter.JSON(w, http.StatusOK, rules)
	}
}

// tableTypesGetHandler is the GET handler for the "table-types" API.
func (p *Plugin) tableTypesGetHandler(formatter *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		formatter.JSON(w, http.StatusOK, p.ListTableTypes())
	}
}
