// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package auth gates access to TinyQuery's mock API surface (package
// api) by table name. There is no wire-protocol authentication layer
// here — TinyQuery has no network layer of its own — so Allowed is
// keyed by table ref rather than by a connection's granted user.
package auth

import (
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

// Permission holds permissions required by a table access, or granted to
// a caller.
type Permission int

const (
	// ReadPerm means that it reads.
	ReadPerm Permission = 1 << iota
	// WritePerm means that it writes.
	WritePerm
)

var (
	// AllPermissions holds all defined permissions.
	AllPermissions = ReadPerm | WritePerm
	// DefaultPermissions are the permissions granted to a caller if not
	// otherwise defined.
	DefaultPermissions = ReadPerm

	// PermissionNames translates between human and machine
	// representations.
	PermissionNames = map[string]Permission{
		"read":  ReadPerm,
		"write": WritePerm,
	}

	// ErrNotAuthorized is returned when the caller is not allowed to use
	// a permission.
	ErrNotAuthorized = errors.NewKind("not authorized")
	// ErrNoPermission is returned when the caller lacks needed
	// permissions.
	ErrNoPermission = errors.NewKind("caller does not have permission: %s")
)

// String returns the set permissions, comma separated.
func (p Permission) String() string {
	var str []string
	for k, v := range PermissionNames {
		if p&v != 0 {
			str = append(str, k)
		}
	}
	return strings.Join(str, ", ")
}

// Auth checks whether a caller is allowed permission p against the
// table named ref ("dataset.table").
type Auth interface {
	Allowed(p Permission, ref string) bool
}
