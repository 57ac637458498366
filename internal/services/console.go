package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/lotto-console/internal/domain"
)

// DefaultLoadTimeout bounds the initial document fetch.
const DefaultLoadTimeout = 5 * time.Second

// Default polling cadence.
const (
	DefaultStatusEvery = 5 * time.Second
	DefaultLogsEvery   = 3 * time.Second
)

// Backend is the configuration API the console talks to.
type Backend interface {
	GetConfig(ctx context.Context) ([]byte, error)
	PostConfig(ctx context.Context, body []byte) error
	Status(ctx context.Context) (domain.BotStatus, error)
	Logs(ctx context.Context) ([]string, error)
	StartBot(ctx context.Context) (domain.ActionResult, error)
	StopBot(ctx context.Context) (domain.ActionResult, error)
	TestLogin(ctx context.Context, userID, userPW string) (domain.ActionResult, error)
	TestDeposit(ctx context.Context) (domain.ActionResult, error)
}

// ConsoleOptions tunes a Console. Zero values select the defaults.
type ConsoleOptions struct {
	Reconciler  Reconciler
	LoadTimeout time.Duration
	StatusEvery time.Duration
	LogsEvery   time.Duration
	Logger      *zerolog.Logger
}

// Console is the operator's view of one bot: the fetched document, the
// edits not yet saved, and the last polled status and logs.
//
// Every state change goes through mu, so edits, saves and poll results are
// applied one at a time. Network calls run outside the lock; a save works
// on the snapshot taken when it started.
type Console struct {
	backend Backend
	opts    ConsoleOptions
	log     zerolog.Logger

	mu       sync.Mutex
	view     View
	loadErr  error
	baseline domain.Document
	edit     domain.Document
	status   domain.BotStatus
	statusAt time.Time
	logs     []string
}

// NewConsole returns a Console in the loading view.
func NewConsole(b Backend, opts ConsoleOptions) *Console {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.StatusEvery <= 0 {
		opts.StatusEvery = DefaultStatusEvery
	}
	if opts.LogsEvery <= 0 {
		opts.LogsEvery = DefaultLogsEvery
	}
	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}
	return &Console{
		backend: b,
		opts:    opts,
		log:     l.With().Str("component", "console").Logger(),
		view:    ViewLoading,
	}
}

// State is a read-only copy of what the console shows.
type State struct {
	View       View
	LoadErr    error
	Edit       domain.Document
	Baseline   domain.Document
	Visibility [domain.SlotCount]domain.Visibility
	Status     domain.BotStatus
	StatusAt   time.Time
	Tone       domain.ResultTone
	Logs       []string
}

// State returns a consistent copy of the console state.
func (c *Console) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		View:     c.view,
		LoadErr:  c.loadErr,
		Edit:     c.edit,
		Baseline: c.baseline,
		Status:   c.status,
		StatusAt: c.statusAt,
		Tone:     domain.ClassifyResult(c.status.LatestResult),
		Logs:     append([]string(nil), c.logs...),
	}
	for i, g := range c.edit.Games {
		s.Visibility[i] = domain.DeriveVisibility(g)
	}
	return s
}

// Load fetches the document and routes to setup or the dashboard. Any
// failure, including the fetch deadline, leaves the console in the error
// view; it never falls back to a default document.
func (c *Console) Load(ctx context.Context) error {
	c.mu.Lock()
	c.view = ViewLoading
	c.loadErr = nil
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.opts.LoadTimeout)
	defer cancel()

	doc, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.view = ViewError
		c.loadErr = err
		c.log.Error().Err(err).Msg("load configuration")
		return err
	}
	c.baseline = doc
	c.edit = doc
	// Password inputs start empty; the stored values stay in the baseline.
	c.edit.Account.UserPW = ""
	c.edit.Account.PayPW = ""
	c.view = Route(doc)
	return nil
}

func (c *Console) fetch(ctx context.Context) (domain.Document, error) {
	raw, err := c.backend.GetConfig(ctx)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Parse(raw)
}

// Setup completes the first-run wizard: the account is validated, merged
// into a freshly fetched document, posted, and the console reloads. The
// dashboard is shown only if the reloaded document has an account. A
// backend that already has one is left alone with ErrAlreadyConfigured.
func (c *Console) Setup(ctx context.Context, a domain.Account) error {
	return c.setup(ctx, a, false)
}

// ReplaceAccount runs the setup flow on a configured backend, replacing
// its account and keeping every other section.
func (c *Console) ReplaceAccount(ctx context.Context, a domain.Account) error {
	return c.setup(ctx, a, true)
}

func (c *Console) setup(ctx context.Context, a domain.Account, replace bool) error {
	if err := ValidateAccount(a); err != nil {
		return err
	}
	fctx, cancel := context.WithTimeout(ctx, c.opts.LoadTimeout)
	raw, err := c.backend.GetConfig(fctx)
	cancel()
	if err != nil {
		return fmt.Errorf("fetch configuration: %w", err)
	}
	if !replace {
		doc, err := domain.Parse(raw)
		if err != nil {
			return err
		}
		if Route(doc) == ViewDashboard {
			return fmt.Errorf("%w: account %s", ErrAlreadyConfigured, doc.Account.UserID)
		}
	}
	merged, err := BootstrapMerge(raw, a)
	if err != nil {
		return err
	}
	if err := c.backend.PostConfig(ctx, merged); err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	c.log.Info().Str("user_id", a.UserID).Bool("replaced", replace).Msg("account setup saved")
	return c.Load(ctx)
}

// update applies fn to the edit state under the lock.
func (c *Console) update(fn func(d *domain.Document) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewDashboard {
		return ErrNotLoaded
	}
	return fn(&c.edit)
}

func slotIndex(id int) (int, error) {
	if id < 1 || id > domain.SlotCount {
		return 0, fmt.Errorf("%w: %d", ErrUnknownSlot, id)
	}
	return id - 1, nil
}

// SetSlotActive toggles a slot. Its other fields are kept.
func (c *Console) SetSlotActive(id int, active bool) error {
	i, err := slotIndex(id)
	if err != nil {
		return err
	}
	return c.update(func(d *domain.Document) error {
		d.Games[i] = d.Games[i].WithActive(active)
		return nil
	})
}

// SetSlotMode changes a slot's mode. Hidden numbers and range are kept.
func (c *Console) SetSlotMode(id int, m domain.Mode) error {
	i, err := slotIndex(id)
	if err != nil {
		return err
	}
	return c.update(func(d *domain.Document) error {
		g, err := d.Games[i].WithMode(m)
		if err != nil {
			return err
		}
		d.Games[i] = g
		return nil
	})
}

// SetSlotNumbers stores the numbers text verbatim.
func (c *Console) SetSlotNumbers(id int, numbers string) error {
	i, err := slotIndex(id)
	if err != nil {
		return err
	}
	return c.update(func(d *domain.Document) error {
		d.Games[i].Numbers = numbers
		return nil
	})
}

// SetSlotAnalysisRange sets the draw window of a max_first slot.
func (c *Console) SetSlotAnalysisRange(id int, r domain.AnalysisRange) error {
	i, err := slotIndex(id)
	if err != nil {
		return err
	}
	if !r.Valid() {
		return &domain.ValidationError{Field: "analysis_range", Reason: "unknown range " + r.String()}
	}
	return c.update(func(d *domain.Document) error {
		d.Games[i].AnalysisRange = r
		return nil
	})
}

// SetAccount replaces the account inputs.
func (c *Console) SetAccount(a domain.Account) error {
	return c.update(func(d *domain.Document) error { d.Account = a; return nil })
}

// SetDeposit replaces the deposit inputs.
func (c *Console) SetDeposit(dep domain.Deposit) error {
	if dep.Threshold < 0 || dep.Amount < 0 {
		return &domain.ValidationError{Field: "deposit", Reason: "amounts must not be negative"}
	}
	return c.update(func(d *domain.Document) error { d.Deposit = dep; return nil })
}

// SetSchedule replaces the schedule inputs. The buy time is checked when
// the schedule is saved, not here.
func (c *Console) SetSchedule(s domain.Schedule) error {
	for _, wd := range []domain.Weekday{s.DepositDay, s.BuyDay, s.CheckDay} {
		if !wd.Valid() {
			return &domain.ValidationError{Field: "schedule", Reason: "unknown weekday " + string(wd)}
		}
	}
	return c.update(func(d *domain.Document) error { d.Schedule = s; return nil })
}

// SetSystem replaces the notification inputs.
func (c *Console) SetSystem(s domain.System) error {
	return c.update(func(d *domain.Document) error { d.System = s; return nil })
}

// Save submits the form named by section. Validation failures return
// before any request is made. On success the sent document becomes the
// new baseline; the edit state is left as it is.
func (c *Console) Save(ctx context.Context, section domain.Section) error {
	c.mu.Lock()
	if c.view != ViewDashboard {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	doc, err := c.opts.Reconciler.SectionSave(section, c.edit, c.baseline)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	for _, g := range doc.Games {
		if lint := domain.LintNumbers(g); lint != nil && g.Active {
			c.log.Warn().Int("slot", g.ID).Err(lint).Msg("slot numbers look wrong")
		}
	}

	body, err := domain.Marshal(doc)
	if err != nil {
		return err
	}
	if err := c.backend.PostConfig(ctx, body); err != nil {
		c.log.Error().Err(err).Str("section", string(section)).Msg("save configuration")
		return err
	}

	c.mu.Lock()
	c.baseline = doc
	c.mu.Unlock()
	c.log.Info().Str("section", string(section)).Msg("configuration saved")
	return nil
}

// StartBot asks the backend to start the worker and refreshes status.
func (c *Console) StartBot(ctx context.Context) (domain.ActionResult, error) {
	res, err := c.backend.StartBot(ctx)
	if err != nil {
		return res, err
	}
	_ = c.PollStatus(ctx)
	return res, nil
}

// StopBot asks the backend to stop the worker and refreshes status.
func (c *Console) StopBot(ctx context.Context) (domain.ActionResult, error) {
	res, err := c.backend.StopBot(ctx)
	if err != nil {
		return res, err
	}
	_ = c.PollStatus(ctx)
	return res, nil
}

// TestLogin probes the lottery site with the typed id and password.
func (c *Console) TestLogin(ctx context.Context) (domain.ActionResult, error) {
	c.mu.Lock()
	a := c.edit.Account
	loaded := c.view == ViewDashboard
	c.mu.Unlock()
	if !loaded {
		return domain.ActionResult{}, ErrNotLoaded
	}
	if a.UserID == "" || a.UserPW == "" {
		return domain.ActionResult{}, &domain.ValidationError{Field: "account", Reason: ErrMissingCredentials.Error()}
	}
	return c.backend.TestLogin(ctx, a.UserID, a.UserPW)
}

// TestDeposit runs a real deposit probe once confirm approves it.
func (c *Console) TestDeposit(ctx context.Context, confirm func() bool) (domain.ActionResult, error) {
	if confirm == nil || !confirm() {
		return domain.ActionResult{}, ErrNotConfirmed
	}
	return c.backend.TestDeposit(ctx)
}

// PollStatus fetches the bot status once. A failure is logged and counted
// and leaves the previous status in place.
func (c *Console) PollStatus(ctx context.Context) error {
	st, err := c.backend.Status(ctx)
	if err != nil {
		pollFailures.WithLabelValues("status").Inc()
		c.log.Warn().Err(err).Msg("status poll failed")
		return err
	}
	c.mu.Lock()
	c.status = st
	c.statusAt = time.Now()
	c.mu.Unlock()
	return nil
}

// PollLogs fetches the log tail once and replaces the previous one.
func (c *Console) PollLogs(ctx context.Context) error {
	lines, err := c.backend.Logs(ctx)
	if err != nil {
		pollFailures.WithLabelValues("logs").Inc()
		c.log.Warn().Err(err).Msg("log poll failed")
		return err
	}
	c.mu.Lock()
	c.logs = lines
	c.mu.Unlock()
	return nil
}

// StartPolling polls status and logs once right away and then on their
// intervals until ctx is done. Each poll gets its interval as a deadline,
// so a backend that stops answering costs one tick and not the schedule.
// A slow poll makes the next tick of the same poll skip; the other poll is
// unaffected. The returned function stops the pollers and waits for
// running polls to finish.
func (c *Console) StartPolling(ctx context.Context) (stop func(), err error) {
	cl := CronLogger(c.log)
	sched := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	polls := []struct {
		every time.Duration
		fn    func(context.Context) error
	}{
		{c.opts.StatusEvery, c.PollStatus},
		{c.opts.LogsEvery, c.PollLogs},
	}
	var first errgroup.Group
	for _, p := range polls {
		tick := boundedPoll(ctx, p.fn, p.every)
		if _, err := sched.AddFunc(fmt.Sprintf("@every %s", p.every), tick); err != nil {
			return nil, err
		}
		first.Go(func() error { tick(); return nil })
	}
	_ = first.Wait()
	sched.Start()

	var once sync.Once
	stop = func() {
		once.Do(func() { <-sched.Stop().Done() })
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop, nil
}

// boundedPoll runs fn with a deadline of one interval.
func boundedPoll(ctx context.Context, fn func(context.Context) error, every time.Duration) func() {
	return func() {
		tctx, cancel := context.WithTimeout(ctx, every)
		defer cancel()
		_ = fn(tctx)
	}
}

// IsTimeout reports whether err came from an expired load deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// CronLogger adapts l to cron's logger. Cron's routine messages go to
// debug.
func CronLogger(l zerolog.Logger) cron.Logger {
	return cronLogger{l: l}
}

type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
