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

package auth

import (
	"encoding/json"
	"io/ioutil"
	"strings"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrParseGrantFile is given when a grant file is malformed.
	ErrParseGrantFile = errors.NewKind("error parsing grant file")
	// ErrUnknownPermission happens when a grant names an undefined
	// permission.
	ErrUnknownPermission = errors.NewKind("unknown permission, %s")
	// ErrDuplicateGrant happens when a table appears more than once in a
	// grant file.
	ErrDuplicateGrant = errors.NewKind("duplicate grant, %s")
)

// tableGrant holds the permissions granted against a single table name
// ("dataset.table", or "*" for every table).
type tableGrant struct {
	Table           string
	JSONPermissions []string `json:"Permissions"`
	Permissions     Permission
}

// Native is a table-name-keyed grant table, loaded from a JSON fixture,
// keyed by table ref rather than by username since TinyQuery has no
// wire-protocol login step to authenticate.
type Native struct {
	grants map[string]Permission
}

// NewNativeSingle returns a Native granting perm against every table.
func NewNativeSingle(perm Permission) *Native {
	return &Native{grants: map[string]Permission{"*": perm}}
}

// NewNativeFile loads a Native grant table from a JSON file of
// []tableGrant.
func NewNativeFile(file string) (*Native, error) {
	var data []tableGrant
	raw, err := ioutil.ReadFile(file)
	if err != nil {
		return nil, ErrParseGrantFile.New(err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ErrParseGrantFile.New(err)
	}
	grants := make(map[string]Permission, len(data))
	for _, g := range data {
		if _, ok := grants[g.Table]; ok {
			return nil, ErrParseGrantFile.Wrap(ErrDuplicateGrant.New(g.Table))
		}
		perm := DefaultPermissions
		if len(g.JSONPermissions) > 0 {
			perm = 0
			for _, p := range g.JSONPermissions {
				bit, ok := PermissionNames[strings.ToLower(p)]
				if !ok {
					return nil, ErrParseGrantFile.Wrap(ErrUnknownPermission.New(p))
				}
				perm |= bit
			}
		}
		grants[g.Table] = perm
	}
	return &Native{grants: grants}, nil
}

// Allowed implements Auth.
func (n *Native) Allowed(p Permission, ref string) bool {
	if perm, ok := n.grants[ref]; ok {
		return perm&p == p
	}
	if perm, ok := n.grants["*"]; ok {
		return perm&p == p
	}
	return false
}
