package domain

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

const (
	// MinNumber and MaxNumber bound a lotto ball.
	MinNumber = 1
	MaxNumber = 45
	// PickSize is how many balls make up one game.
	PickSize = 6
)

// ParseNumbers reads the free-text numbers field of a slot. Full-width
// digits and commas typed through an IME are folded to ASCII first.
// An empty field yields an empty pick.
func ParseNumbers(raw string) ([]int, error) {
	folded := width.Narrow.String(raw)
	folded = strings.NewReplacer("、", ",", "､", ",").Replace(folded)
	if strings.TrimSpace(folded) == "" {
		return nil, nil
	}

	parts := strings.Split(folded, ",")
	seen := make(map[int]struct{}, len(parts))
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", p)
		}
		if n < MinNumber || n > MaxNumber {
			return nil, fmt.Errorf("%d is outside %d..%d", n, MinNumber, MaxNumber)
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%d appears twice", n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) > PickSize {
		return nil, fmt.Errorf("at most %d numbers, got %d", PickSize, len(out))
	}
	return out, nil
}

// LintNumbers reports a problem with s's numbers when its mode uses them.
// It is advisory: saves are never blocked on it, and the value is stored
// verbatim either way.
func LintNumbers(s GameSlot) error {
	if !s.Mode.UsesNumbers() {
		return nil
	}
	nums, err := ParseNumbers(s.Numbers)
	if err != nil {
		return err
	}
	if s.Mode == ModeManual && len(nums) != PickSize {
		return fmt.Errorf("manual mode needs %d numbers, got %d", PickSize, len(nums))
	}
	return nil
}
