package domain

import (
	"encoding/json"
	"testing"
)

func TestMode_Valid(t *testing.T) {
	for _, m := range Modes {
		if !m.Valid() {
			t.Fatalf("%q should be valid", m)
		}
	}
	for _, m := range []Mode{"", "Auto", "hot", "max-first"} {
		if m.Valid() {
			t.Fatalf("%q should be invalid", m)
		}
	}
}

func TestAnalysisRange_JSON(t *testing.T) {
	cases := []struct {
		in   string
		want AnalysisRange
	}{
		{`10`, Analysis10},
		{`"50"`, Analysis50},
		{`100`, Analysis100},
		{`"200"`, Analysis200},
		{`"all"`, AnalysisAll},
		{`"ALL"`, AnalysisAll},
	}
	for _, tc := range cases {
		var r AnalysisRange
		if err := json.Unmarshal([]byte(tc.in), &r); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if r != tc.want {
			t.Fatalf("unmarshal %s = %v; want %v", tc.in, r, tc.want)
		}
	}

	for _, bad := range []string{`0`, `-1`, `"-1"`, `25`, `"some"`, `true`} {
		var r AnalysisRange
		if err := json.Unmarshal([]byte(bad), &r); err == nil {
			t.Fatalf("unmarshal %s: expected error, got %v", bad, r)
		}
	}

	b, _ := json.Marshal(AnalysisAll)
	if string(b) != `"all"` {
		t.Fatalf("marshal all = %s", b)
	}
	b, _ = json.Marshal(Analysis100)
	if string(b) != `100` {
		t.Fatalf("marshal 100 = %s", b)
	}
}

func TestWeekday_ValidAndCron(t *testing.T) {
	if !Saturday.Valid() || Weekday("saturday").Valid() || Weekday("Sat").Valid() {
		t.Fatalf("weekday validity is exact English names only")
	}
	if Sunday.CronDOW() != 0 || Saturday.CronDOW() != 6 || Friday.CronDOW() != 5 {
		t.Fatalf("unexpected cron day-of-week mapping")
	}
}
