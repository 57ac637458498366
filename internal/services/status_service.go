package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/repo"
)

// StatusService assembles GET /api/status from the process state, the
// worker's last report and the schedule.
type StatusService struct {
	DB     *gorm.DB
	Bot    *BotManager
	Config *ConfigService
	// Location is the schedule's time zone. Nil means time.Local.
	Location *time.Location
	// Now is overridable in tests.
	Now func() time.Time
}

// Get returns the current status. Upcoming runs are omitted if the
// configuration cannot be read.
func (s *StatusService) Get(ctx context.Context) (domain.BotStatus, error) {
	rec, err := repo.GetStatus(ctx, s.DB)
	if err != nil {
		return domain.BotStatus{}, err
	}
	st := domain.BotStatus{
		Status:       domain.StatusStopped,
		Balance:      rec.Balance,
		LatestResult: rec.LatestResult,
		LastRun:      rec.LastRun,
	}
	if s.Bot != nil {
		st.Status = s.Bot.RunState()
	}
	if s.Config != nil {
		doc, err := s.Config.Document(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("status: schedule unavailable")
		} else {
			st.NextRuns = NextRuns(doc.Schedule, s.now(), s.Location)
		}
	}
	return st, nil
}

// Report merges a worker update. Only the fields present change.
func (s *StatusService) Report(ctx context.Context, p domain.StatusPatch) (*domain.StatusRecord, error) {
	if p.Empty() {
		return nil, &domain.ValidationError{Field: "status", Reason: "no fields to update"}
	}
	if p.Balance != nil && *p.Balance < 0 {
		return nil, &domain.ValidationError{Field: "balance", Reason: "must not be negative"}
	}
	return repo.MergeStatus(ctx, s.DB, p)
}

func (s *StatusService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
