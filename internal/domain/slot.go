package domain

// SlotCount is the fixed number of purchase slots in every document.
const SlotCount = 5

// GameSlot is one purchase strategy. Numbers and AnalysisRange are kept
// verbatim even when the current mode ignores them, so switching modes
// back and forth never loses operator input.
type GameSlot struct {
	ID            int           `json:"id"`
	Active        bool          `json:"active"`
	Mode          Mode          `json:"mode"`
	Numbers       string        `json:"numbers"`
	AnalysisRange AnalysisRange `json:"analysis_range"`
}

// Visibility is the derived presentation state of a slot's inputs.
type Visibility struct {
	NumbersVisible  bool
	AnalysisVisible bool
	FieldsEnabled   bool
}

// DeriveVisibility computes which sub-fields of s are shown and editable.
// Disabled (inactive) fields stay visible but non-interactive.
func DeriveVisibility(s GameSlot) Visibility {
	return Visibility{
		NumbersVisible:  s.Mode.UsesNumbers(),
		AnalysisVisible: s.Mode.UsesAnalysis(),
		FieldsEnabled:   s.Active,
	}
}

// SlotClass is the presentation label for a mode: "manual" for number
// driven modes, "analysis" for max_first, "" otherwise.
func SlotClass(m Mode) string {
	switch {
	case m.UsesNumbers():
		return "manual"
	case m.UsesAnalysis():
		return "analysis"
	}
	return ""
}

// WithActive returns s with only the active flag changed.
func (s GameSlot) WithActive(active bool) GameSlot {
	s.Active = active
	return s
}

// WithMode returns s with only the mode changed. Hidden values survive.
func (s GameSlot) WithMode(m Mode) (GameSlot, error) {
	if !m.Valid() {
		return s, &ValidationError{Field: "mode", Reason: "unknown mode " + string(m)}
	}
	s.Mode = m
	return s, nil
}
