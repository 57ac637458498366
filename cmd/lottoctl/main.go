// Command lottoctl is the operator console for the lottery purchase bot.
//
// Usage:
//
//	lottoctl [-api URL] [-key KEY] [-yes] [-force] <command> [args]
//
// Commands:
//
//	show                          print the configuration and bot status
//	setup USER_ID USER_PW PAY_PW  first-run account setup; -force replaces an existing account
//	save SECTION key=value...     edit one section and save it
//	start | stop                  start or stop the bot
//	test-login [USER_ID USER_PW]  check site credentials
//	test-deposit                  run a real deposit, after asking unless -yes
//	watch                         follow status and logs until interrupted
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/lotto-console/internal/client"
	"github.com/tbourn/lotto-console/internal/config"
	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/services"
	"github.com/tbourn/lotto-console/internal/sysutil"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "lottoctl:", err)
		os.Exit(1)
	}
}

type app struct {
	console *services.Console
	cfg     config.ClientConfig
	key     string
	force   bool
	in      io.Reader
	out     io.Writer
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("lottoctl", flag.ContinueOnError)
	api := fs.String("api", "", "backend API URL (default $LOTTO_API_URL)")
	key := fs.String("key", "", "Idempotency-Key for start, stop and test-deposit (default random)")
	yes := fs.Bool("yes", false, "do not ask before a real deposit")
	force := fs.Bool("force", false, "let setup replace a configured account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("missing command")
	}
	sysutil.SetupLogging(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	base := sysutil.FirstNonEmpty(*api, cfg.APIURL)
	rec := services.Reconciler{}
	if cfg.SaveStrategy == "section" {
		rec.Strategy = services.SectionMerge
	}
	if cfg.KeepBlankSecrets {
		rec.Secrets = services.SecretsKeepOnBlank
	}
	a := &app{
		console: services.NewConsole(client.New(base, &http.Client{Timeout: cfg.RequestTimeout}), services.ConsoleOptions{
			Reconciler:  rec,
			LoadTimeout: cfg.LoadTimeout,
			StatusEvery: cfg.StatusEvery,
			LogsEvery:   cfg.LogsEvery,
		}),
		cfg: cfg,
		key:   *key,
		force: *force,
		in:    in,
		out:   out,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	if cmd == "setup" {
		return a.setup(ctx, rest)
	}
	if err := a.load(ctx); err != nil {
		return err
	}

	switch cmd {
	case "show":
		return a.show(ctx)
	case "save":
		return a.save(ctx, rest)
	case "start":
		return a.action(a.console.StartBot)(a.withKey(ctx))
	case "stop":
		return a.action(a.console.StopBot)(a.withKey(ctx))
	case "test-login":
		return a.testLogin(ctx, rest)
	case "test-deposit":
		return a.testDeposit(ctx, *yes)
	case "watch":
		return a.watch(ctx)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// load fetches the document and refuses to continue on a fresh bot.
func (a *app) load(ctx context.Context) error {
	if err := a.console.Load(ctx); err != nil {
		if services.IsTimeout(err) {
			return fmt.Errorf("backend did not answer within %s: %w", a.cfg.LoadTimeout, err)
		}
		return err
	}
	if a.console.State().View == services.ViewSetup {
		return errors.New("no account configured yet; run: lottoctl setup USER_ID USER_PW PAY_PW")
	}
	return nil
}

func (a *app) withKey(ctx context.Context) context.Context {
	return client.WithIdempotencyKey(ctx, sysutil.FirstNonEmpty(a.key, uuid.NewString()))
}

func (a *app) setup(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: lottoctl setup USER_ID USER_PW PAY_PW")
	}
	acc := domain.Account{UserID: args[0], UserPW: args[1], PayPW: args[2]}
	setup := a.console.Setup
	if a.force {
		setup = a.console.ReplaceAccount
	}
	if err := setup(ctx, acc); err != nil {
		if errors.Is(err, services.ErrAlreadyConfigured) {
			return fmt.Errorf("%w; use -force to replace it", err)
		}
		return err
	}
	if a.console.State().View != services.ViewDashboard {
		return errors.New("account was saved but the backend still reports none")
	}
	fmt.Fprintln(a.out, "setup complete")
	return nil
}

func (a *app) show(ctx context.Context) error {
	_ = a.console.PollStatus(ctx)
	st := a.console.State()
	printDocument(a.out, st)
	printStatus(a.out, st)
	return nil
}

func (a *app) save(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: lottoctl save SECTION key=value...")
	}
	section := domain.Section(strings.ToLower(args[0]))
	if !section.Valid() {
		return fmt.Errorf("unknown section %q", args[0])
	}
	if err := applyEdits(a.console, section, args[1:]); err != nil {
		return err
	}
	if err := a.console.Save(ctx, section); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s saved\n", section)
	return nil
}

func (a *app) action(fn func(context.Context) (domain.ActionResult, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s: %s\n", res.Status, res.Message)
		if !res.OK() {
			return errors.New(res.Message)
		}
		return nil
	}
}

func (a *app) testLogin(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
	case 2:
		acc := a.console.State().Edit.Account
		acc.UserID, acc.UserPW = args[0], args[1]
		if err := a.console.SetAccount(acc); err != nil {
			return err
		}
	default:
		return errors.New("usage: lottoctl test-login [USER_ID USER_PW]")
	}
	return a.action(a.console.TestLogin)(ctx)
}

func (a *app) testDeposit(ctx context.Context, yes bool) error {
	confirm := func() bool {
		return yes || sysutil.Confirm(a.in, a.out, "This charges the stored account. Run a real deposit?")
	}
	res, err := a.console.TestDeposit(a.withKey(ctx), confirm)
	if errors.Is(err, services.ErrNotConfirmed) {
		fmt.Fprintln(a.out, "cancelled")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: %s\n", res.Status, res.Message)
	return nil
}

func (a *app) watch(ctx context.Context) error {
	stop, err := a.console.StartPolling(ctx)
	if err != nil {
		return err
	}
	defer stop()

	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	var lastStatus time.Time
	var seen []string
	for {
		st := a.console.State()
		if st.StatusAt.After(lastStatus) {
			lastStatus = st.StatusAt
			printStatus(a.out, st)
		}
		for _, line := range newLines(seen, st.Logs) {
			fmt.Fprintln(a.out, line)
		}
		seen = st.Logs

		select {
		case <-ctx.Done():
			log.Debug().Msg("watch stopped")
			return nil
		case <-tick.C:
		}
	}
}
