// Package caster casts a frame's columns to their declared semantic types.
// Grounded on Common/SchemaCaster.py.
package caster

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/henry-richard7/lakehouse-orchestrator/internal/frame"
)

// ColumnSpec declares one output column's semantic type, matching
// column_metadata's column_data_type / date_format fields.
type ColumnSpec struct {
	Name       string
	Type       string // integer|long|float|double|string|boolean|date
	DateFormat string // only meaningful when Type == "date"
}

// Cast returns a new frame with every declared column's cells converted to
// its Go-native representation: integer->int32, long->int64, float->
// float32, double->float64, string->string, boolean->bool, date->
// time.Time parsed per DateFormat.
func Cast(f *frame.Frame, specs []ColumnSpec) (*frame.Frame, error) {
	out := frame.New(f.Columns)
	out.Rows = make([]frame.Row, len(f.Rows))

	specByName := make(map[string]ColumnSpec, len(specs))
	for _, s := range specs {
		specByName[s.Name] = s
	}

	for i, r := range f.Rows {
		cp := make(frame.Row, len(r))

		for col, val := range r {
			spec, declared := specByName[col]
			if !declared {
				cp[col] = val

				continue
			}

			cast, err := castValue(val, spec)
			if err != nil {
				return nil, fmt.Errorf("casting column %q row %d: %w", col, i, err)
			}

			cp[col] = cast
		}

		out.Rows[i] = cp
	}

	return out, nil
}

func castValue(val any, spec ColumnSpec) (any, error) {
	if val == nil {
		return nil, nil
	}

	switch spec.Type {
	case "integer":
		i, err := toInt64(val)
		if err != nil {
			return nil, err
		}

		return int32(i), nil
	case "long":
		return toInt64(val)
	case "float":
		f, err := toFloat64(val)
		if err != nil {
			return nil, err
		}

		return float32(f), nil
	case "double":
		return toFloat64(val)
	case "string":
		return fmt.Sprintf("%v", val), nil
	case "boolean":
		return toBool(val)
	case "date":
		return toDate(val, spec.DateFormat)
	default:
		return nil, fmt.Errorf("unsupported semantic type %q", spec.Type)
	}
}

func toInt64(val any) (int64, error) {
	switch v := val.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("cannot cast %T to integer", val)
	}
}

func toFloat64(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	default:
		return 0, fmt.Errorf("cannot cast %T to float", val)
	}
}

func toBool(val any) (bool, error) {
	switch v := val.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("cannot cast %T to boolean", val)
	}
}

// toDate parses val (expected to be a string) using the Go time layout
// DateLayout translates dateFormat into.
func toDate(val any, dateFormat string) (time.Time, error) {
	s, ok := val.(string)
	if !ok {
		if t, ok := val.(time.Time); ok {
			return t, nil
		}

		return time.Time{}, fmt.Errorf("cannot cast %T to date", val)
	}

	layout := DateLayout(dateFormat)

	return time.Parse(layout, s)
}

// DateLayout translates a catalog date_format token string (YYYY, MM, DD,
// HH24, MI, SS) into a Go reference-time layout.
func DateLayout(format string) string {
	replacer := strings.NewReplacer(
		"YYYY", "2006",
		"MM", "01",
		"DD", "02",
		"HH24", "15",
		"MI", "04",
		"SS", "05",
	)

	return replacer.Replace(format)
}
