package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/observability"
)

// CommandRunner runs one external command and returns its combined output.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, env []string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Dir string
}

// Run implements CommandRunner.
func (r ExecRunner) Run(ctx context.Context, argv []string, env []string) (string, error) {
	if len(argv) == 0 {
		return "", ErrNoCommand
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), env...)
	var out bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &out
	err := cmd.Run()
	return strings.TrimSpace(out.String()), err
}

// ProbeService runs the login and deposit checks the dashboard offers.
// The checks themselves live in the bot; this only launches them.
type ProbeService struct {
	Runner         CommandRunner
	LoginCommand   []string
	DepositCommand []string
	Timeout        time.Duration
	// Credentials supplies the stored account for the deposit probe.
	Credentials func(ctx context.Context) (domain.Account, error)
}

// Login checks that id and pw sign in to the lottery site.
func (s *ProbeService) Login(ctx context.Context, id, pw string) domain.ActionResult {
	if id == "" || pw == "" {
		return failed(ErrMissingCredentials.Error())
	}
	return s.run(ctx, "login", s.LoginCommand, []string{
		"LOTTO_USER_ID=" + id,
		"LOTTO_USER_PW=" + pw,
	})
}

// Deposit runs a real deposit with the stored account.
func (s *ProbeService) Deposit(ctx context.Context) domain.ActionResult {
	if s.Credentials == nil {
		return failed(ErrMissingCredentials.Error())
	}
	a, err := s.Credentials(ctx)
	if err != nil {
		return failed(fmt.Sprintf("cannot read account: %v", err))
	}
	if a.UserID == "" || a.UserPW == "" || a.PayPW == "" {
		return failed("account is not fully configured")
	}
	return s.run(ctx, "deposit", s.DepositCommand, []string{
		"LOTTO_USER_ID=" + a.UserID,
		"LOTTO_USER_PW=" + a.UserPW,
		"LOTTO_PAY_PW=" + a.PayPW,
	})
}

func (s *ProbeService) run(ctx context.Context, name string, argv, env []string) domain.ActionResult {
	if len(argv) == 0 || s.Runner == nil {
		return failed(fmt.Sprintf("%s probe: %v", name, ErrNoCommand))
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	ctx, span := observability.Start(ctx, "probe."+name, attribute.String("probe.command", argv[0]))
	start := time.Now()
	out, err := s.Runner.Run(ctx, argv, env)
	took := time.Since(start)
	observability.End(span, err)
	if err != nil {
		log.Warn().Err(err).Str("probe", name).Dur("took", took).Msg("probe finished")
	} else {
		log.Info().Str("probe", name).Dur("took", took).Msg("probe finished")
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return failed(fmt.Sprintf("%s probe timed out after %s", name, s.Timeout))
	case err != nil:
		msg := fmt.Sprintf("%s probe failed: %v", name, err)
		if out != "" {
			msg += ": " + lastLine(out)
		}
		return failed(msg)
	}
	msg := fmt.Sprintf("%s probe succeeded", name)
	if out != "" {
		msg = lastLine(out)
	}
	return domain.ActionResult{Status: "success", Message: msg}
}

func failed(msg string) domain.ActionResult {
	return domain.ActionResult{Status: "error", Message: msg}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
