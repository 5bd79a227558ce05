// Package numeric converts the heterogeneous number formats exchanges put on
// the wire (quoted strings, bare literals, empty or missing fields) into
// definite float64/int64 values or nil, depending on the caller's policy.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Policy selects what an absent, empty or unparseable field resolves to.
type Policy int

const (
	// Null resolves invalid input to nil ("the source has no value").
	Null Policy = iota
	// Zero resolves invalid input to 0 ("the field exists but is blank").
	Zero
)

// Value holds a raw wire number. Its unmarshaller accepts both quoted and
// bare JSON numbers so one model field can cover either encoding. A JSON
// null or a missing field leaves the value empty.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = ""
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		*v = Value(unquoted)
		return nil
	}
	*v = Value(s)
	return nil
}

func (v Value) String() string { return string(v) }

// Float parses raw into a float64 pointer. Invalid input (empty after
// trimming, non-numeric, NaN, Inf) resolves per policy. It never fails.
func Float(raw string, policy Policy) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return invalidFloat(policy)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return invalidFloat(policy)
	}
	return &f
}

// FloatOrZero is Float with the Zero policy, dereferenced.
func FloatOrZero(raw string) float64 {
	return *Float(raw, Zero)
}

// Int parses raw into an int64 pointer, truncating toward zero when the wire
// carries a fractional value. Invalid input resolves per policy.
func Int(raw string, policy Policy) *int64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return invalidInt(policy)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return invalidInt(policy)
	}
	n := int64(math.Trunc(f))
	return &n
}

// IntOrZero is Int with the Zero policy, dereferenced.
func IntOrZero(raw string) int64 {
	return *Int(raw, Zero)
}

func invalidFloat(policy Policy) *float64 {
	if policy == Zero {
		z := 0.0
		return &z
	}
	return nil
}

func invalidInt(policy Policy) *int64 {
	if policy == Zero {
		z := int64(0)
		return &z
	}
	return nil
}
