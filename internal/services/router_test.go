package services

import (
	"testing"

	"github.com/tbourn/lotto-console/internal/domain"
)

func TestRoute(t *testing.T) {
	doc := domain.DefaultDocument()
	if got := Route(doc); got != ViewSetup {
		t.Fatalf("empty user id: got %v, want setup", got)
	}

	// Secrets do not matter for routing.
	doc.Account.UserID = "u1"
	if got := Route(doc); got != ViewDashboard {
		t.Fatalf("got %v, want dashboard", got)
	}
}

func TestView_String(t *testing.T) {
	for v, want := range map[View]string{
		ViewLoading:   "loading",
		ViewError:     "error",
		ViewSetup:     "setup",
		ViewDashboard: "dashboard",
	} {
		if v.String() != want {
			t.Fatalf("%d: got %q, want %q", v, v.String(), want)
		}
	}
}
