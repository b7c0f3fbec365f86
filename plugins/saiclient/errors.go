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

package saiclient

import "fmt"

/**************************** Unknown Object Error ****************************/

// UnknownObjectError is returned when an operation references an OID that
// was never issued or has already been removed.
type UnknownObjectError struct {
	oid ObjectID
}

// NewUnknownObjectError is the constructor for UnknownObjectError.
func NewUnknownObjectError(oid ObjectID) error {
	return &UnknownObjectError{oid: oid}
}

// Error names the unknown OID.
func (e *UnknownObjectError) Error() string {
	return fmt.Sprintf("unknown object %s", e.oid)
}

// GetObjectID returns the unknown OID.
func (e *UnknownObjectError) GetObjectID() ObjectID {
	return e.oid
}

/**************************** Wrong Object Type Error *************************/

// WrongObjectTypeError is returned when an operation references an existing
// object of a different type than expected.
type WrongObjectTypeError struct {
	oid      ObjectID
	expected ObjectType
}

// NewWrongObjectTypeError is the constructor for WrongObjectTypeError.
func NewWrongObjectTypeError(oid ObjectID, expected ObjectType) error {
	return &WrongObjectTypeError{oid: oid, expected: expected}
}

// Error names the OID, its actual type and the expected type.
func (e *WrongObjectTypeError) Error() string {
	return fmt.Sprintf("object %s is a %s, not a %s",
		e.oid, e.oid.Type(), e.expected)
}

// GetObjectID returns the mistyped OID.
func (e *WrongObjectTypeError) GetObjectID() ObjectID {
	return e.oid
}

// GetExpectedType returns the type the operation expected.
func (e *WrongObjectTypeError) GetExpectedType() ObjectType {
	return e.expected
}

/****************************** Object In Use Error ***************************/

// ObjectInUseError is returned when removing an object that other objects
// still reference.
type ObjectInUseError struct {
	oid        ObjectID
	references int
}

// NewObjectInUseError is the constructor for ObjectInUseError.
func NewObjectInUseError(oid ObjectID, references int) error {
	return &ObjectInUseError{oid: oid, references: references}
}

// Error names the OID and the number of outstanding references.
func (e *ObjectInUseError) Error() string {
	return fmt.Sprintf("object %s is still referenced by %d objects",
		e.oid, e.references)
}

// GetObjectID returns the still-referenced OID.
func (e *ObjectInUseError) GetObjectID() ObjectID {
	return e.oid
}

// GetReferences returns the number of outstanding references.
func (e *ObjectInUseError) GetReferences() int {
	return e.references
}
