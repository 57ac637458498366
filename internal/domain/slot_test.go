package domain

import "testing"

func TestDeriveVisibility_AllModes(t *testing.T) {
	for _, m := range Modes {
		for _, active := range []bool{true, false} {
			v := DeriveVisibility(GameSlot{ID: 1, Mode: m, Active: active})
			wantNumbers := m == ModeManual || m == ModeSemiAuto
			wantAnalysis := m == ModeMaxFirst
			if v.NumbersVisible != wantNumbers || v.AnalysisVisible != wantAnalysis {
				t.Fatalf("mode=%s: got %+v", m, v)
			}
			if v.NumbersVisible && v.AnalysisVisible {
				t.Fatalf("mode=%s: numbers and analysis both visible", m)
			}
			if v.FieldsEnabled != active {
				t.Fatalf("mode=%s active=%v: FieldsEnabled=%v", m, active, v.FieldsEnabled)
			}
		}
	}
}

func TestDeriveVisibility_InactiveManualStaysVisible(t *testing.T) {
	s := GameSlot{ID: 1, Mode: ModeManual, Numbers: "1,2,3,4,5,6", Active: false}
	v := DeriveVisibility(s)
	if v.FieldsEnabled || !v.NumbersVisible {
		t.Fatalf("want visible but disabled, got %+v", v)
	}
}

func TestWithActive_ToggleKeepsValues(t *testing.T) {
	for _, m := range Modes {
		orig := GameSlot{ID: 3, Active: true, Mode: m, Numbers: "7, 8, 9", AnalysisRange: Analysis200}
		got := orig.WithActive(false).WithActive(true)
		if got != orig {
			t.Fatalf("toggle changed slot: %+v -> %+v", orig, got)
		}
	}
}

func TestWithMode_RestoresHiddenNumbers(t *testing.T) {
	s := GameSlot{ID: 2, Active: true, Mode: ModeManual, Numbers: "1,2,3,4,5,6", AnalysisRange: Analysis10}

	s, err := s.WithMode(ModeMaxFirst)
	if err != nil {
		t.Fatalf("WithMode: %v", err)
	}
	if DeriveVisibility(s).NumbersVisible {
		t.Fatalf("numbers should be hidden for max_first")
	}
	if s.Numbers != "1,2,3,4,5,6" {
		t.Fatalf("hidden numbers were cleared: %q", s.Numbers)
	}

	s, _ = s.WithMode(ModeManual)
	if s.Numbers != "1,2,3,4,5,6" || s.AnalysisRange != Analysis10 {
		t.Fatalf("values not restored: %+v", s)
	}

	if _, err := s.WithMode("lucky"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestSlotClass(t *testing.T) {
	cases := map[Mode]string{
		ModeAuto:     "",
		ModeSemiAuto: "manual",
		ModeManual:   "manual",
		ModeAI:       "",
		ModeMaxFirst: "analysis",
	}
	for m, want := range cases {
		if got := SlotClass(m); got != want {
			t.Fatalf("SlotClass(%s) = %q; want %q", m, got, want)
		}
	}
}
