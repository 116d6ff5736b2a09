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

// Package types defines TinyQuery's scalar type and mode lattice: the five
// column types and three field modes that every Column, Context and typed
// expression in the engine is built from.
package types

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Type is the scalar type of a column. TinyQuery only ever has these five,
// plus the synthetic NoneType used for untyped NULL literals before they're
// coerced into a real column type.
type Type string

const (
	Int       Type = "INTEGER"
	Float     Type = "FLOAT"
	Bool      Type = "BOOLEAN"
	String    Type = "STRING"
	Timestamp Type = "TIMESTAMP"
	// NoneType is the type of a bare NULL literal before it has been
	// reconciled against the type of whatever it's compared or unioned
	// with. It must never appear as the type of a materialized column.
	NoneType Type = "NONETYPE"
)

// NumericSet contains every type that can be used as an operand to +, -, *,
// / and the comparison operators.
var NumericSet = map[Type]bool{Int: true, Float: true, Bool: true, Timestamp: true}

// IntLikeSet contains the types that behave as integers arithmetically.
// Bool and Timestamp both implicitly convert to an integer (Bool as 0/1,
// Timestamp as a Unix microsecond count) wherever an INTEGER is expected.
var IntLikeSet = map[Type]bool{Int: true, Bool: true, Timestamp: true}

// All is the set of real (non-synthetic) column types.
var All = map[Type]bool{Int: true, Float: true, Bool: true, String: true, Timestamp: true}

func (t Type) String() string { return string(t) }

// Mode is the field mode of a column: whether it may hold NULL, must always
// hold a value, or holds zero-or-more values per row.
type Mode string

const (
	Nullable Mode = "NULLABLE"
	Required Mode = "REQUIRED"
	Repeated Mode = "REPEATED"
)

func (m Mode) String() string { return string(m) }

// CheckMode reports whether a Go value read from a column is consistent
// with the column's declared mode: nil only under NULLABLE, a slice only
// under REPEATED, anything else is fine under any mode (REQUIRED is not
// separately enforced at the value level — it's a schema-time guarantee).
func CheckMode(value interface{}, mode Mode) bool {
	if value == nil {
		return mode == Nullable
	}
	if _, ok := value.([]interface{}); ok {
		return mode == Repeated
	}
	return true
}

// Cast converts a raw Go value (as produced by a CSV/NDJSON loader or a
// literal in the query text) into the representation used for columns of
// the given type: int64 for Int, float64 for Float, bool for Bool, string
// for String, time.Time for Timestamp, nil for NoneType.
func Cast(value interface{}, t Type) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch t {
	case Int:
		return castInt(value)
	case Float:
		return castFloat(value)
	case Bool:
		return castBool(value)
	case String:
		return castString(value), nil
	case Timestamp:
		return castTimestamp(value)
	case NoneType:
		return nil, nil
	default:
		return nil, errors.Errorf("unknown type %q", t)
	}
}

func castInt(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		var out int64
		if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
			return nil, errors.Wrapf(err, "cannot cast %q to INTEGER", v)
		}
		return out, nil
	case time.Time:
		return v.UnixMicro(), nil
	default:
		return nil, errors.Errorf("cannot cast %T to INTEGER", value)
	}
}

func castFloat(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		var out float64
		if _, err := fmt.Sscanf(v, "%g", &out); err != nil {
			return nil, errors.Wrapf(err, "cannot cast %q to FLOAT", v)
		}
		return out, nil
	default:
		return nil, errors.Errorf("cannot cast %T to FLOAT", value)
	}
}

func castBool(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch v {
		case "true", "True", "TRUE":
			return true, nil
		case "false", "False", "FALSE":
			return false, nil
		default:
			return nil, errors.Errorf("cannot cast %q to BOOLEAN", v)
		}
	default:
		return nil, errors.Errorf("cannot cast %T to BOOLEAN", value)
	}
}

func castString(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// MergeModes combines the declared modes of two columns being unioned (by
// TableUnion or by a schema-merging table copy) under the same short name:
// REPEATED only survives if both sides are REPEATED, REQUIRED only survives
// if both sides are REQUIRED, otherwise the safe common answer is NULLABLE.
// Mirrors the Python original's tq_modes.merge_modes lattice.
func MergeModes(a, b Mode) Mode {
	if a == b {
		return a
	}
	if a == Repeated || b == Repeated {
		return Nullable
	}
	return Nullable
}

func castTimestamp(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02 15:04:05.999999",
			"2006-01-02 15:04:05",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, errors.Errorf("cannot parse %q as TIMESTAMP", v)
	case int64:
		return time.UnixMicro(v).UTC(), nil
	case float64:
		return time.UnixMicro(int64(v)).UTC(), nil
	default:
		return nil, errors.Errorf("cannot cast %T to TIMESTAMP", value)
	}
}
