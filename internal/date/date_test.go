package date

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Date
	}{
		{"2020-01-02", New(2020, time.January, 2)},
		{"2020-1-2", New(2020, time.January, 2)},
		{" 2020-01-02 ", New(2020, time.January, 2)},
		{"2020-01-02 15:30:00", New(2020, time.January, 2)},
		{"2020-01-02T00:00:00Z", New(2020, time.January, 2)},
		{"01/02/2020", New(2020, time.January, 2)},
		{"02-Jan-2020", New(2020, time.January, 2)},
		{"Jan 2, 2020", New(2020, time.January, 2)},
		{"20200102", New(2020, time.January, 2)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "not a date", "2020-13-45"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestCompare(t *testing.T) {
	a := New(2020, time.January, 31)
	b := a.Add(1)
	if b != New(2020, time.February, 1) {
		t.Fatalf("Expected 2020-02-01, got %v", b)
	}
	if !a.Before(b) || b.Before(a) || !b.After(a) {
		t.Error("Expected a before b")
	}
	if a.Compare(a) != 0 {
		t.Error("Expected a equal to itself")
	}
	if !a.Between(a, b) || !b.Between(a, b) || a.Add(-1).Between(a, b) {
		t.Error("Between bounds are inclusive")
	}
}

func TestJSON(t *testing.T) {
	d := New(2021, time.March, 4)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"2021-03-04"` {
		t.Errorf("Expected \"2021-03-04\", got %s", b)
	}
	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back != d {
		t.Errorf("Expected %v, got %v", d, back)
	}
}
