package main

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/lotto-console/internal/domain"
	"github.com/tbourn/lotto-console/internal/services"
)

var titleCase = cases.Title(language.English)

// applyEdits applies key=value assignments for section to the console's
// edit state. Keys are the document's field names; slot fields are
// addressed as slotN.field, e.g. slot2.mode=manual.
func applyEdits(c *services.Console, section domain.Section, args []string) error {
	edit := c.State().Edit
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%q: want key=value", arg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		var err error
		switch section {
		case domain.SectionAccount:
			err = setAccount(&edit.Account, key, val)
			if err == nil {
				err = c.SetAccount(edit.Account)
			}
		case domain.SectionPurchase:
			err = setSlot(c, key, val)
		case domain.SectionDeposit:
			err = setDeposit(&edit.Deposit, key, val)
			if err == nil {
				err = c.SetDeposit(edit.Deposit)
			}
		case domain.SectionSchedule:
			err = setSchedule(&edit.Schedule, key, val)
			if err == nil {
				err = c.SetSchedule(edit.Schedule)
			}
		case domain.SectionSystem:
			if key != "discord_webhook" {
				err = unknownKey(section, key)
				break
			}
			edit.System.DiscordWebhook = strings.TrimSpace(val)
			err = c.SetSystem(edit.System)
		default:
			err = fmt.Errorf("unknown section %q", section)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func unknownKey(s domain.Section, key string) error {
	return fmt.Errorf("%s has no field %q", s, key)
}

func setAccount(a *domain.Account, key, val string) error {
	switch key {
	case "user_id":
		a.UserID = val
	case "user_pw":
		a.UserPW = val
	case "pay_pw":
		a.PayPW = val
	default:
		return unknownKey(domain.SectionAccount, key)
	}
	return nil
}

func setSlot(c *services.Console, key, val string) error {
	slot, field, ok := strings.Cut(strings.TrimPrefix(key, "slot"), ".")
	if !ok || !strings.HasPrefix(key, "slot") {
		return fmt.Errorf("%q: want slotN.field", key)
	}
	id, err := strconv.Atoi(slot)
	if err != nil {
		return fmt.Errorf("%q: bad slot number", key)
	}
	switch field {
	case "active":
		on, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return c.SetSlotActive(id, on)
	case "mode":
		return c.SetSlotMode(id, domain.Mode(strings.ToLower(val)))
	case "numbers":
		return c.SetSlotNumbers(id, val)
	case "analysis_range", "range":
		r, err := domain.ParseAnalysisRange(val)
		if err != nil {
			return err
		}
		return c.SetSlotAnalysisRange(id, r)
	}
	return unknownKey(domain.SectionPurchase, key)
}

func setDeposit(d *domain.Deposit, key, val string) error {
	var field *int
	switch key {
	case "threshold":
		field = &d.Threshold
	case "amount":
		field = &d.Amount
	default:
		return unknownKey(domain.SectionDeposit, key)
	}
	n, err := strconv.Atoi(strings.ReplaceAll(val, ",", ""))
	if err != nil {
		return fmt.Errorf("%s: %q is not a number", key, val)
	}
	*field = n
	return nil
}

func setSchedule(s *domain.Schedule, key, val string) error {
	day := domain.Weekday(titleCase.String(strings.TrimSpace(val)))
	switch key {
	case "deposit_day":
		s.DepositDay = day
	case "buy_day":
		s.BuyDay = day
	case "check_day":
		s.CheckDay = day
	case "deposit_time":
		s.DepositTime = val
	case "buy_time":
		s.BuyTime = val
	case "check_time":
		s.CheckTime = val
	default:
		return unknownKey(domain.SectionSchedule, key)
	}
	return nil
}
