package wawi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Record is a single raw record returned by the WAWI search endpoint.
// Field values arrive as loosely typed JSON; the accessors below perform
// the conversions the mappers need.
type Record map[string]any

// Int64 returns the field as int64, or 0 when absent or not numeric
func (r Record) Int64(field string) int64 {
	switch v := r[field].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

// String returns the field as string, or "" when absent. WAWI serializes
// empty values as boolean false, which is treated as absent.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Bool returns the field as bool, or false when absent
func (r Record) Bool(field string) bool {
	b, _ := r[field].(bool)
	return b
}

// Decimal returns the field as a decimal, or zero when absent
func (r Record) Decimal(field string) decimal.Decimal {
	switch v := r[field].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// Time parses the field using the WAWI datetime layout, returning the
// zero time when absent or malformed.
func (r Record) Time(field string) time.Time {
	s := r.String(field)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Relation unwraps a WAWI relation tuple. Relational fields are encoded
// as a two-element array [id, display_name]; absent relations are false.
func (r Record) Relation(field string) (int64, string, bool) {
	tuple, ok := r[field].([]any)
	if !ok || len(tuple) < 1 {
		return 0, "", false
	}
	id, ok := tuple[0].(float64)
	if !ok {
		return 0, "", false
	}
	name := ""
	if len(tuple) > 1 {
		name, _ = tuple[1].(string)
	}
	return int64(id), name, true
}

// Int64List returns the field as a list of ids (one2many/many2many fields)
func (r Record) Int64List(field string) []int64 {
	raw, ok := r[field].([]any)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(float64); ok {
			ids = append(ids, int64(f))
		}
	}
	return ids
}
