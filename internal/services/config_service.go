// Package services – ConfigService
//
// This file implements the backend side of GET/POST /api/config. The
// document is stored as submitted once its shape has been checked, with the
// account passwords sealed at rest. The first read of an empty database
// seeds the default document so a fresh bot routes to first-run setup.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/notify"
	"github.com/tbourn/lotto-console/internal/repo"
	"github.com/tbourn/lotto-console/internal/secret"
)

// MaskedSecret replaces stored passwords in masked reads. Posting it back
// keeps the stored value.
const MaskedSecret = "********"

const defaultNotifyTimeout = 10 * time.Second

// ConfigRepo defines the persistence contract required by ConfigService.
type ConfigRepo interface {
	// GetConfig returns the stored row or repo.ErrNotFound.
	GetConfig(ctx context.Context, db *gorm.DB) (*domain.ConfigRecord, error)
	// SaveConfig upserts the singleton row.
	SaveConfig(ctx context.Context, db *gorm.DB, body []byte) (*domain.ConfigRecord, error)
}

// ConfigService reads and writes the configuration document.
type ConfigService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the config repository used by this service.
	Repo ConfigRepo
	// Box seals account passwords. Nil stores them in the clear.
	Box *secret.Box
	// Notifier announces saves on the document's Discord webhook. Optional.
	Notifier notify.Notifier
	// MaskSecrets replaces passwords with MaskedSecret on Get.
	MaskSecrets bool
	// NotifyTimeout bounds one notification. Zero means 10s.
	NotifyTimeout time.Duration

	pending sync.WaitGroup
}

// Get returns the stored document as JSON, seeding the default document on
// first use.
func (s *ConfigService) Get(ctx context.Context) ([]byte, error) {
	return s.read(ctx, s.MaskSecrets)
}

// Document returns the stored document parsed, with passwords in the clear.
func (s *ConfigService) Document(ctx context.Context) (domain.Document, error) {
	raw, err := s.read(ctx, false)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Parse(raw)
}

func (s *ConfigService) read(ctx context.Context, mask bool) ([]byte, error) {
	rec, err := s.Repo.GetConfig(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		rec, err = s.seed(ctx)
	}
	if err != nil {
		return nil, err
	}
	return rewriteAccount(rec.Body, func(a *domain.Account) error {
		for _, pw := range []*string{&a.UserPW, &a.PayPW} {
			if mask && *pw != "" {
				*pw = MaskedSecret
				continue
			}
			if s.Box == nil {
				continue
			}
			plain, err := s.Box.Open(*pw)
			if err != nil {
				return err
			}
			*pw = plain
		}
		return nil
	})
}

func (s *ConfigService) seed(ctx context.Context) (*domain.ConfigRecord, error) {
	body, err := domain.Marshal(domain.DefaultDocument())
	if err != nil {
		return nil, err
	}
	log.Info().Msg("no configuration stored; seeding defaults")
	return s.Repo.SaveConfig(ctx, s.DB, body)
}

// Put stores raw after checking its shape. Members this backend does not
// know about are stored as sent. A *domain.ParseError means nothing was
// written.
func (s *ConfigService) Put(ctx context.Context, raw []byte) (domain.Document, error) {
	doc, err := domain.Parse(raw)
	if err != nil {
		return domain.Document{}, err
	}

	var stored domain.Account
	if rec, err := s.Repo.GetConfig(ctx, s.DB); err == nil {
		stored, _ = accountOf(rec.Body)
	}

	body, err := rewriteAccount(raw, func(a *domain.Account) error {
		sealed := []struct {
			in  *string
			old string
		}{
			{&a.UserPW, stored.UserPW},
			{&a.PayPW, stored.PayPW},
		}
		for _, f := range sealed {
			if *f.in == MaskedSecret {
				*f.in = f.old
				continue
			}
			if s.Box == nil {
				continue
			}
			v, err := s.Box.Seal(*f.in)
			if err != nil {
				return err
			}
			*f.in = v
		}
		return nil
	})
	if err != nil {
		return domain.Document{}, err
	}
	if _, err := s.Repo.SaveConfig(ctx, s.DB, body); err != nil {
		return domain.Document{}, err
	}

	s.announce(ctx, doc.System.DiscordWebhook, notify.Event{
		Kind:    notify.KindInfo,
		Title:   "Configuration saved",
		Message: fmt.Sprintf("Account %s, %d active slot(s).", doc.Account.UserID, activeSlots(doc)),
	})
	return doc, nil
}

// Announce sends ev to the webhook of the stored document.
func (s *ConfigService) Announce(ctx context.Context, ev notify.Event) {
	if s.Notifier == nil {
		return
	}
	doc, err := s.Document(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("announce: cannot read configuration")
		return
	}
	s.announce(ctx, doc.System.DiscordWebhook, ev)
}

// announce sends ev in the background. It outlives the request that
// triggered it but not NotifyTimeout.
func (s *ConfigService) announce(ctx context.Context, webhook string, ev notify.Event) {
	if s.Notifier == nil || webhook == "" {
		return
	}
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.Notifier.Notify(nctx, webhook, ev); err != nil {
			log.Warn().Err(err).Str("title", ev.Title).Msg("discord notification failed")
		}
	}()
}

// Wait blocks until notifications already sent off have finished.
func (s *ConfigService) Wait() {
	s.pending.Wait()
}

func activeSlots(d domain.Document) int {
	n := 0
	for _, g := range d.Games {
		if g.Active {
			n++
		}
	}
	return n
}

func accountOf(raw []byte) (domain.Account, error) {
	var w struct {
		Account domain.Account `json:"account"`
	}
	err := json.Unmarshal(raw, &w)
	return w.Account, err
}

// rewriteAccount applies fn to the account member of raw and returns the
// document with every other member untouched. A document without an
// account is returned as is.
func rewriteAccount(raw []byte, fn func(*domain.Account) error) ([]byte, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, &domain.ParseError{Reason: err.Error()}
	}
	acctRaw, ok := members["account"]
	if !ok || string(acctRaw) == "null" {
		return raw, nil
	}
	var a domain.Account
	if err := json.Unmarshal(acctRaw, &a); err != nil {
		return nil, &domain.ParseError{Path: "account", Reason: err.Error()}
	}
	if err := fn(&a); err != nil {
		return nil, err
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	members["account"] = b
	return json.Marshal(members)
}
