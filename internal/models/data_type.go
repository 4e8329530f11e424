package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DataType identifies which health metric a permission or query concerns.
type DataType string

const (
	DataTypeSteps     DataType = "steps"
	DataTypeHeartRate DataType = "heartRate"
	DataTypeSleep     DataType = "sleep"
	DataTypeWeight    DataType = "weight"
)

// AllDataTypes lists every supported data type in canonical order.
var AllDataTypes = []DataType{
	DataTypeSteps,
	DataTypeHeartRate,
	DataTypeSleep,
	DataTypeWeight,
}

// Valid reports whether d is one of the supported data types.
func (d DataType) Valid() bool {
	for _, dt := range AllDataTypes {
		if dt == d {
			return true
		}
	}
	return false
}

// ParseDataType resolves s to a data type. Matching ignores case and
// surrounding spaces, so config keys lowercased by viper still resolve.
func ParseDataType(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	for _, dt := range AllDataTypes {
		if strings.EqualFold(string(dt), s) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q: must be one of steps, heartRate, sleep, weight", s)
}

func (d DataType) order() int {
	for i, dt := range AllDataTypes {
		if dt == d {
			return i
		}
	}
	return len(AllDataTypes)
}

// DataTypeSet is the set of data types a caller wants access to.
// Duplicates collapse and insertion order is irrelevant.
type DataTypeSet map[DataType]struct{}

// NewDataTypeSet builds a set from the given types.
func NewDataTypeSet(types ...DataType) DataTypeSet {
	s := make(DataTypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// ParseDataTypeSet parses raw names into a set, failing on the first unknown name.
func ParseDataTypeSet(names []string) (DataTypeSet, error) {
	s := make(DataTypeSet, len(names))
	for _, n := range names {
		dt, err := ParseDataType(n)
		if err != nil {
			return nil, err
		}
		s[dt] = struct{}{}
	}
	return s, nil
}

// Add inserts t into the set.
func (s DataTypeSet) Add(t DataType) { s[t] = struct{}{} }

// Contains reports whether t is in the set.
func (s DataTypeSet) Contains(t DataType) bool {
	_, ok := s[t]
	return ok
}

// Len returns the number of distinct types.
func (s DataTypeSet) Len() int { return len(s) }

// Sorted returns the members in canonical order.
func (s DataTypeSet) Sorted() []DataType {
	out := make([]DataType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		oi, oj := out[i].order(), out[j].order()
		if oi != oj {
			return oi < oj
		}
		return out[i] < out[j]
	})
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (s DataTypeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a list of names, rejecting unknown ones.
func (s *DataTypeSet) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	parsed, err := ParseDataTypeSet(names)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
