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

package function

import (
	"strings"
	"time"

	"github.com/dolthub/tinyquery/sql"
	"github.com/dolthub/tinyquery/sql/types"
)

// noArgTimestampFunction implements current_timestamp/now/current_date/
// current_time: zero-argument functions evaluated once per call and
// broadcast to every row.
type noArgTimestampFunction struct {
	name    string
	retType types.Type
	value   func() interface{}
}

func (f noArgTimestampFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 0 {
		return "", typeErr("%s: expected no arguments", f.name)
	}
	return f.retType, nil
}

func (f noArgTimestampFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	v := f.value()
	values := make([]interface{}, numRows)
	for i := range values {
		values[i] = v
	}
	return &sql.Column{Type: f.retType, Mode: types.Nullable, Values: values}, nil
}

func nowUTC() time.Time { return time.Now().UTC() }

var currentTimestampFunction = noArgTimestampFunction{
	name: "current_timestamp", retType: types.Timestamp,
	value: func() interface{} { return nowUTC() },
}
var nowFunction = noArgTimestampFunction{
	name: "now", retType: types.Timestamp,
	value: func() interface{} { return nowUTC() },
}
var currentDateFunction = noArgTimestampFunction{
	name: "current_date", retType: types.String,
	value: func() interface{} { return nowUTC().Format("2006-01-02") },
}
var currentTimeFunction = noArgTimestampFunction{
	name: "current_time", retType: types.String,
	value: func() interface{} { return nowUTC().Format("15:04:05") },
}

// timestampFunction implements timestamp(x): casts a STRING (or another
// TIMESTAMP) to TIMESTAMP.
type timestampFunction struct{}

func (timestampFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || (args[0] != types.String && args[0] != types.Timestamp) {
		return "", typeErr("timestamp: expected one string or timestamp argument")
	}
	return types.Timestamp, nil
}

func (timestampFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			converted, err := types.Cast(v, types.Timestamp)
			if err != nil {
				return nil, typeErr("timestamp: %v", err)
			}
			values[i] = converted
		}
		return &sql.Column{Type: types.Timestamp, Mode: types.Nullable, Values: values}, nil
	})
}

func asTimestamp(v interface{}) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

// timestampExtractFunction implements the single-field extraction
// functions: day, dayofweek, dayofyear, hour, minute, month, quarter,
// second, year, week, utc_usec_to_day/hour/month/year/week.
type timestampExtractFunction struct {
	name string
	fn   func(time.Time) int64
}

func (f timestampExtractFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || args[0] != types.Timestamp {
		return "", typeErr("%s: expected one timestamp argument", f.name)
	}
	return types.Int, nil
}

func (f timestampExtractFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			t, ok := asTimestamp(v)
			if !ok {
				return nil, typeErr("%s: expected a timestamp value", f.name)
			}
			values[i] = f.fn(t)
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

func isoWeek(t time.Time) int64 {
	_, w := t.ISOWeek()
	return int64(w)
}

var dayFunction = timestampExtractFunction{name: "day", fn: func(t time.Time) int64 { return int64(t.Day()) }}
var dayOfWeekFunction = timestampExtractFunction{name: "dayofweek", fn: func(t time.Time) int64 { return int64(t.Weekday()) + 1 }}
var dayOfYearFunction = timestampExtractFunction{name: "dayofyear", fn: func(t time.Time) int64 { return int64(t.YearDay()) }}
var hourFunction = timestampExtractFunction{name: "hour", fn: func(t time.Time) int64 { return int64(t.Hour()) }}
var minuteFunction = timestampExtractFunction{name: "minute", fn: func(t time.Time) int64 { return int64(t.Minute()) }}
var monthFunction = timestampExtractFunction{name: "month", fn: func(t time.Time) int64 { return int64(t.Month()) }}
var quarterFunction = timestampExtractFunction{name: "quarter", fn: func(t time.Time) int64 { return int64((t.Month()-1)/3 + 1) }}
var secondFunction = timestampExtractFunction{name: "second", fn: func(t time.Time) int64 { return int64(t.Second()) }}
var yearFunction = timestampExtractFunction{name: "year", fn: func(t time.Time) int64 { return int64(t.Year()) }}
var weekFunction = timestampExtractFunction{name: "week", fn: isoWeek}
var utcUsecToDayFunction = timestampExtractFunction{name: "utc_usec_to_day", fn: func(t time.Time) int64 {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.UnixMicro()
}}
var utcUsecToHourFunction = timestampExtractFunction{name: "utc_usec_to_hour", fn: func(t time.Time) int64 {
	d := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC)
	return d.UnixMicro()
}}
var utcUsecToMonthFunction = timestampExtractFunction{name: "utc_usec_to_month", fn: func(t time.Time) int64 {
	d := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return d.UnixMicro()
}}
var utcUsecToYearFunction = timestampExtractFunction{name: "utc_usec_to_year", fn: func(t time.Time) int64 {
	d := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	return d.UnixMicro()
}}
var utcUsecToWeekFunction = timestampExtractFunction{name: "utc_usec_to_week", fn: func(t time.Time) int64 {
	offset := (int(t.Weekday()) + 6) % 7 // days since most recent Monday
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
	return d.UnixMicro()
}}

// dateFunction implements date(timestamp): the YYYY-MM-DD date portion.
type dateFunction struct{}

func (dateFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || args[0] != types.Timestamp {
		return "", typeErr("date: expected one timestamp argument")
	}
	return types.String, nil
}

func (dateFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			t, _ := asTimestamp(v)
			values[i] = t.Format("2006-01-02")
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// timeFunction implements time(timestamp): the HH:MM:SS time portion.
type timeFunction struct{}

func (timeFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || args[0] != types.Timestamp {
		return "", typeErr("time: expected one timestamp argument")
	}
	return types.String, nil
}

func (timeFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			t, _ := asTimestamp(v)
			values[i] = t.Format("15:04:05")
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// timestampToUnitFunction implements timestamp_to_msec/sec/usec.
type timestampToUnitFunction struct {
	name string
	fn   func(time.Time) int64
}

func (f timestampToUnitFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || args[0] != types.Timestamp {
		return "", typeErr("%s: expected one timestamp argument", f.name)
	}
	return types.Int, nil
}

func (f timestampToUnitFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			t, _ := asTimestamp(v)
			values[i] = f.fn(t)
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

var timestampToMsecFunction = timestampToUnitFunction{name: "timestamp_to_msec", fn: func(t time.Time) int64 { return t.UnixMilli() }}
var timestampToSecFunction = timestampToUnitFunction{name: "timestamp_to_sec", fn: func(t time.Time) int64 { return t.Unix() }}
var timestampToUsecFunction = timestampToUnitFunction{name: "timestamp_to_usec", fn: func(t time.Time) int64 { return t.UnixMicro() }}

// unitToTimestampFunction implements msec_to_timestamp/sec_to_timestamp/
// usec_to_timestamp.
type unitToTimestampFunction struct {
	name string
	fn   func(int64) time.Time
}

func (f unitToTimestampFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !types.IntLikeSet[args[0]] {
		return "", typeErr("%s: expected one int argument", f.name)
	}
	return types.Timestamp, nil
}

func (f unitToTimestampFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			values[i] = f.fn(toInt(v))
		}
		return &sql.Column{Type: types.Timestamp, Mode: types.Nullable, Values: values}, nil
	})
}

var msecToTimestampFunction = unitToTimestampFunction{name: "msec_to_timestamp", fn: func(v int64) time.Time { return time.UnixMilli(v).UTC() }}
var secToTimestampFunction = unitToTimestampFunction{name: "sec_to_timestamp", fn: func(v int64) time.Time { return time.Unix(v, 0).UTC() }}
var usecToTimestampFunction = unitToTimestampFunction{name: "usec_to_timestamp", fn: func(v int64) time.Time { return time.UnixMicro(v).UTC() }}

// parseUTCUsecFunction implements parse_utc_usec(str): parses a
// "YYYY-MM-DD HH:MM:SS"-shaped string into microseconds since epoch.
type parseUTCUsecFunction struct{}

func (parseUTCUsecFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || args[0] != types.String {
		return "", typeErr("parse_utc_usec: expected one string argument")
	}
	return types.Int, nil
}

func (parseUTCUsecFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			converted, err := types.Cast(v, types.Timestamp)
			if err != nil {
				return nil, typeErr("parse_utc_usec: %v", err)
			}
			values[i] = converted.(time.Time).UnixMicro()
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

// formatUTCUsecFunction implements format_utc_usec(usec): formats a
// microsecond epoch value as an ISO-ish timestamp string.
type formatUTCUsecFunction struct{}

func (formatUTCUsecFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 1 || !types.IntLikeSet[args[0]] {
		return "", typeErr("format_utc_usec: expected one int argument")
	}
	return types.String, nil
}

func (formatUTCUsecFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			t := time.UnixMicro(toInt(v)).UTC()
			values[i] = t.Format("2006-01-02 15:04:05.000000")
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}

// dateAddFunction implements date_add(timestamp, count, unit): unit is
// one of "year", "month", "day", "hour", "minute", "second" and must be a
// compile-time-constant string across the whole column.
type dateAddFunction struct{}

func (dateAddFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 3 || args[0] != types.Timestamp || !types.IntLikeSet[args[1]] || args[2] != types.String {
		return "", typeErr("date_add: expected (timestamp, int, string)")
	}
	return types.Timestamp, nil
}

func (dateAddFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		unit, ok, err := literalPattern(args[2], "date_add")
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		if !ok {
			return &sql.Column{Type: types.Timestamp, Mode: types.Nullable, Values: values}, nil
		}
		for i := 0; i < numRows; i++ {
			ts, n := args[0].Values[i], args[1].Values[i]
			if ts == nil || n == nil {
				continue
			}
			t, _ := asTimestamp(ts)
			shifted, err := shiftTimestamp(t, int(toInt(n)), unit)
			if err != nil {
				return nil, err
			}
			values[i] = shifted
		}
		return &sql.Column{Type: types.Timestamp, Mode: types.Nullable, Values: values}, nil
	})
}

func shiftTimestamp(t time.Time, n int, unit string) (time.Time, error) {
	switch strings.ToLower(unit) {
	case "year":
		return t.AddDate(n, 0, 0), nil
	case "month":
		return t.AddDate(0, n, 0), nil
	case "day":
		return t.AddDate(0, 0, n), nil
	case "hour":
		return t.Add(time.Duration(n) * time.Hour), nil
	case "minute":
		return t.Add(time.Duration(n) * time.Minute), nil
	case "second":
		return t.Add(time.Duration(n) * time.Second), nil
	default:
		return time.Time{}, typeErr("date_add: unrecognized unit %q", unit)
	}
}

// dateDiffFunction implements datediff(ts1, ts2): whole days between the
// two timestamps' dates, ts1 - ts2.
type dateDiffFunction struct{}

func (dateDiffFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || args[0] != types.Timestamp || args[1] != types.Timestamp {
		return "", typeErr("datediff: expected (timestamp, timestamp)")
	}
	return types.Int, nil
}

func (dateDiffFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		values := make([]interface{}, numRows)
		for i := 0; i < numRows; i++ {
			v1, v2 := args[0].Values[i], args[1].Values[i]
			if v1 == nil || v2 == nil {
				continue
			}
			t1, _ := asTimestamp(v1)
			t2, _ := asTimestamp(v2)
			d1 := time.Date(t1.Year(), t1.Month(), t1.Day(), 0, 0, 0, 0, time.UTC)
			d2 := time.Date(t2.Year(), t2.Month(), t2.Day(), 0, 0, 0, 0, time.UTC)
			values[i] = int64(d1.Sub(d2).Hours() / 24)
		}
		return &sql.Column{Type: types.Int, Mode: types.Nullable, Values: values}, nil
	})
}

// strftimeUTCUsecFunction implements strftime_utc_usec(usec, format):
// strftime-style formatting (a small set of the common directives) over a
// microsecond epoch value.
type strftimeUTCUsecFunction struct{}

func (strftimeUTCUsecFunction) CheckTypes(args []types.Type) (types.Type, error) {
	if len(args) != 2 || !types.IntLikeSet[args[0]] || args[1] != types.String {
		return "", typeErr("strftime_utc_usec: expected (int, string)")
	}
	return types.String, nil
}

var strftimeDirectives = strings.NewReplacer(
	"%Y", "2006", "%m", "01", "%d", "02",
	"%H", "15", "%M", "04", "%S", "05",
	"%y", "06", "%b", "Jan", "%B", "January",
	"%a", "Mon", "%A", "Monday",
)

func (strftimeUTCUsecFunction) Evaluate(ctx *sql.RequestContext, numRows int, args []*sql.Column) (*sql.Column, error) {
	return evaluateScalar(numRows, args, func(numRows int, args []*sql.Column) (*sql.Column, error) {
		layout, ok, err := literalPattern(args[1], "strftime_utc_usec")
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, numRows)
		if !ok {
			return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
		}
		goLayout := strftimeDirectives.Replace(layout)
		for i, v := range args[0].Values {
			if v == nil {
				continue
			}
			t := time.UnixMicro(toInt(v)).UTC()
			values[i] = t.Format(goLayout)
		}
		return &sql.Column{Type: types.String, Mode: types.Nullable, Values: values}, nil
	})
}
