package models

import (
	"encoding/json"
	"testing"
)

func TestParseDataType(t *testing.T) {
	cases := []struct {
		in      string
		want    DataType
		wantErr bool
	}{
		{"steps", DataTypeSteps, false},
		{"heartRate", DataTypeHeartRate, false},
		{"heartrate", DataTypeHeartRate, false},
		{"  WEIGHT ", DataTypeWeight, false},
		{"sleep", DataTypeSleep, false},
		{"blood_pressure", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseDataType(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDataTypeSet_DuplicatesCollapseAndOrderIsCanonical(t *testing.T) {
	s := NewDataTypeSet(DataTypeWeight, DataTypeSteps, DataTypeWeight, DataTypeHeartRate)
	if s.Len() != 3 {
		t.Fatalf("expected 3 distinct types, got %d", s.Len())
	}
	got := s.Sorted()
	want := []DataType{DataTypeSteps, DataTypeHeartRate, DataTypeWeight}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted mismatch at %d: got %v, want %v", i, got, want)
		}
	}
	if !s.Contains(DataTypeSteps) || s.Contains(DataTypeSleep) {
		t.Fatalf("unexpected membership: %v", got)
	}
}

func TestParseDataTypeSet_RejectsUnknown(t *testing.T) {
	if _, err := ParseDataTypeSet([]string{"steps", "bogus"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestDataTypeSet_JSON(t *testing.T) {
	var s DataTypeSet
	if err := json.Unmarshal([]byte(`["heartRate","steps","steps"]`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["steps","heartRate"]` {
		t.Fatalf("unexpected json: %s", b)
	}
	if err := json.Unmarshal([]byte(`["nope"]`), &s); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestTimeRange_Validate(t *testing.T) {
	if err := (TimeRange{StartMillis: 10, EndMillis: 10}).Validate(); err != nil {
		t.Fatalf("equal bounds should be valid: %v", err)
	}
	if err := (TimeRange{StartMillis: 20, EndMillis: 10}).Validate(); err == nil {
		t.Fatalf("expected error for start > end")
	}
	if err := (TimeRange{StartMillis: -1, EndMillis: 10}).Validate(); err == nil {
		t.Fatalf("expected error for negative start")
	}
	r := TimeRange{StartMillis: 100, EndMillis: 200}
	if !r.Contains(100) || !r.Contains(200) || r.Contains(201) {
		t.Fatalf("Contains bounds wrong for %+v", r)
	}
}
