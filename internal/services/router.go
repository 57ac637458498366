package services

import "github.com/tbourn/lotto-console/internal/domain"

// View is the screen the console shows.
type View int

const (
	ViewLoading View = iota
	ViewError
	ViewSetup
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewError:
		return "error"
	case ViewSetup:
		return "setup"
	case ViewDashboard:
		return "dashboard"
	}
	return "loading"
}

// Route picks the setup wizard for an unconfigured account and the
// dashboard otherwise.
func Route(doc domain.Document) View {
	if doc.Account.UserID == "" {
		return ViewSetup
	}
	return ViewDashboard
}
