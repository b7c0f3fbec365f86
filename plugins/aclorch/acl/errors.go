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

package acl

import "fmt"

// All errors in this package stem from untrusted configuration input and are
// returned to the caller, never panicked. The reconciliation loop is expected
// to log them and leave the offending configuration entry unresolved until it
// is corrected.

/***************************** Missing Field Error ****************************/

// MissingFieldError is returned when a table configuration lacks one of the
// required fields (id, type, stage).
type MissingFieldError struct {
	field string
}

// NewMissingFieldError is the constructor for MissingFieldError.
func NewMissingFieldError(field string) error {
	return &MissingFieldError{field: field}
}

// Error returns a description of the missing field.
func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %s is missing", e.field)
}

// GetField returns the name of the missing field.
func (e *MissingFieldError) GetField() string {
	return e.field
}

/*************************** Unsupported Stage Error **************************/

// UnsupportedStageError is returned when a table requests a stage its table
// type does not support.
type UnsupportedStageError struct {
	tableType string
	stage     Stage
}

// NewUnsupportedStageError is the constructor for UnsupportedStageError.
func NewUnsupportedStageError(tableType string, stage Stage) error {
	return &UnsupportedStageError{tableType: tableType, stage: stage}
}

// Error names the table type and the rejected stage.
func (e *UnsupportedStageError) Error() string {
	return fmt.Sprintf("table type %s does not support stage %s",
		e.tableType, e.stage)
}

// GetTableType returns the name of the table type that rejected the stage.
func (e *UnsupportedStageError) GetTableType() string {
	return e.tableType
}

// GetStage returns the rejected stage.
func (e *UnsupportedStageError) GetStage() Stage {
	return e.stage
}

/*************************** Unsupported Match Error **************************/

// UnsupportedMatchError is returned by capability validation when a rule uses
// a match field outside its table type's match set.
type UnsupportedMatchError struct {
	tableType string
	field     MatchField
}

// NewUnsupportedMatchError is the constructor for UnsupportedMatchError.
func NewUnsupportedMatchError(tableType string, field MatchField) error {
	return &UnsupportedMatchError{tableType: tableType, field: field}
}

// Error names the table type and the offending match field.
func (e *UnsupportedMatchError) Error() string {
	return fmt.Sprintf("table type %s does not support match field %s",
		e.tableType, e.field)
}

// GetTableType returns the name of the table type that rejected the field.
func (e *UnsupportedMatchError) GetTableType() string {
	return e.tableType
}

// GetMatchField returns the rejected match field.
func (e *UnsupportedMatchError) GetMatchField() MatchField {
	return e.field
}

/*************************** Unsupported Action Error *************************/

// UnsupportedActionError is returned by capability validation when a rule uses
// an action outside its table type's action set.
type UnsupportedActionError struct {
	tableType string
	action    ActionType
}

// NewUnsupportedActionError is the constructor for UnsupportedActionError.
func NewUnsupportedActionError(tableType string, action ActionType) error {
	return &UnsupportedActionError{tableType: tableType, action: action}
}

// Error names the table type and the offending action.
func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("table type %s does not support action %s",
		e.tableType, e.action)
}

// GetTableType returns the name of the table type that rejected the action.
func (e *UnsupportedActionError) GetTableType() string {
	return e.tableType
}

// GetAction returns the rejected action.
func (e *UnsupportedActionError) GetAction() ActionType {
	return e.action
}

/***************************** Duplicate Rule Error ***************************/

// DuplicateRuleError is returned by AddRule when the rule ID is already
// present in the table.
type DuplicateRuleError struct {
	table string
	rule  string
}

// NewDuplicateRuleError is the constructor for DuplicateRuleError.
func NewDuplicateRuleError(table, rule string) error {
	return &DuplicateRuleError{table: table, rule: rule}
}

// Error names the table and the duplicated rule ID.
func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %s already exists in table %s", e.rule, e.table)
}

// GetTable returns the ID of the table with the duplicate.
func (e *DuplicateRuleError) GetTable() string {
	return e.table
}

// GetRule returns the duplicated rule ID.
func (e *DuplicateRuleError) GetRule() string {
	return e.rule
}

/***************************** Rule Not Found Error ***************************/

// RuleNotFoundError is returned by UpdateRule when the rule ID is not present
// in the table.
type RuleNotFoundError struct {
	table string
	rule  string
}

// NewRuleNotFoundError is the constructor for RuleNotFoundError.
func NewRuleNotFoundError(table, rule string) error {
	return &RuleNotFoundError{table: table, rule: rule}
}

// Error names the table and the unknown rule ID.
func (e *RuleNotFoundError) Error() string {
	return fmt.Sprintf("rule %s does not exist in table %s", e.rule, e.table)
}

// GetTable returns the ID of the table the lookup ran against.
func (e *RuleNotFoundError) GetTable() string {
	return e.table
}

// GetRule returns the unknown rule ID.
func (e *RuleNotFoundError) GetRule() string {
	return e.rule
}

/**************************** Incomplete Type Error ***************************/

// IncompleteTypeError is returned by TableTypeBuilder.Build when the
// accumulated capability template is not well-formed.
type IncompleteTypeError struct {
	reason string
}

// NewIncompleteTypeError is the constructor for IncompleteTypeError.
func NewIncompleteTypeError(reason string) error {
	return &IncompleteTypeError{reason: reason}
}

// Error returns the reason the builder rejected the template.
func (e *IncompleteTypeError) Error() string {
	return fmt.Sprintf("incomplete ACL table type: %s", e.reason)
}

// GetReason returns the reason the builder rejected the template.
func (e *IncompleteTypeError) GetReason() string {
	return e.reason
}
