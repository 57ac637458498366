// Package domain defines the configuration document of the lottery bot:
// account credentials, the five game slots, deposit rules, the weekly
// schedule and notification settings. It owns parsing with default fill-in
// and the slot presentation rules; it performs no I/O.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Account holds the lottery site credentials. Secrets may arrive empty
// from a backend that does not return them.
type Account struct {
	UserID string `json:"user_id"`
	UserPW string `json:"user_pw"`
	PayPW  string `json:"pay_pw"`
}

// Deposit controls automatic top-ups: when the balance drops below
// Threshold, Amount is charged.
type Deposit struct {
	Threshold int `json:"threshold"`
	Amount    int `json:"amount"`
}

// Schedule holds weekday/time pairs in 24-hour "HH:MM".
type Schedule struct {
	DepositDay  Weekday `json:"deposit_day"`
	DepositTime string  `json:"deposit_time"`
	BuyDay      Weekday `json:"buy_day"`
	BuyTime     string  `json:"buy_time"`
	CheckDay    Weekday `json:"check_day"`
	CheckTime   string  `json:"check_time"`
}

// System holds notification settings.
type System struct {
	DiscordWebhook string `json:"discord_webhook"`
}

// Document is the full persisted configuration of one bot instance.
type Document struct {
	Account  Account             `json:"account"`
	Games    [SlotCount]GameSlot `json:"games"`
	Deposit  Deposit             `json:"deposit"`
	Schedule Schedule            `json:"schedule"`
	System   System              `json:"system"`
}

// Section names a form of the dashboard and the part of the document it edits.
type Section string

const (
	SectionAccount  Section = "account"
	SectionPurchase Section = "purchase"
	SectionDeposit  Section = "deposit"
	SectionSchedule Section = "schedule"
	SectionSystem   Section = "system"
)

// Sections lists every form in dashboard order.
var Sections = []Section{SectionAccount, SectionPurchase, SectionDeposit, SectionSchedule, SectionSystem}

// Valid reports whether s names a known form.
func (s Section) Valid() bool {
	for _, v := range Sections {
		if v == s {
			return true
		}
	}
	return false
}

// ReplaceSection returns d with section s copied from src. Unknown
// sections leave d unchanged.
func (d Document) ReplaceSection(s Section, src Document) Document {
	switch s {
	case SectionAccount:
		d.Account = src.Account
	case SectionPurchase:
		d.Games = src.Games
	case SectionDeposit:
		d.Deposit = src.Deposit
	case SectionSchedule:
		d.Schedule = src.Schedule
	case SectionSystem:
		d.System = src.System
	}
	return d
}

// Marshal serializes d in the wire format accepted by Parse.
func Marshal(d Document) ([]byte, error) {
	return json.Marshal(d)
}

type wireSlot struct {
	ID            int             `json:"id"`
	Active        *bool           `json:"active"`
	Mode          string          `json:"mode"`
	Numbers       *string         `json:"numbers"`
	AnalysisRange json.RawMessage `json:"analysis_range"`
}

type wireDeposit struct {
	Threshold *int `json:"threshold"`
	Amount    *int `json:"amount"`
}

type wireSchedule struct {
	DepositDay  string `json:"deposit_day"`
	DepositTime string `json:"deposit_time"`
	BuyDay      string `json:"buy_day"`
	BuyTime     string `json:"buy_time"`
	CheckDay    string `json:"check_day"`
	CheckTime   string `json:"check_time"`
}

type wireDocument struct {
	Account  *Account      `json:"account"`
	Games    []wireSlot    `json:"games"`
	Deposit  *wireDeposit  `json:"deposit"`
	Schedule *wireSchedule `json:"schedule"`
	System   *System       `json:"system"`
}

// Parse decodes raw into a Document, filling absent optional members from
// Defaults. Empty secrets are accepted. A slot list whose length is not
// SlotCount, or any out-of-enum mode, analysis range or weekday, yields a
// *ParseError.
func Parse(raw []byte) (Document, error) {
	var w wireDocument
	if err := json.Unmarshal(raw, &w); err != nil {
		return Document{}, &ParseError{Reason: err.Error()}
	}

	var doc Document
	if w.Account != nil {
		doc.Account = *w.Account
	}

	if len(w.Games) != SlotCount {
		return Document{}, parseErr("games", "expected %d slots, got %d", SlotCount, len(w.Games))
	}
	for i, ws := range w.Games {
		slot, err := parseSlot(i, ws)
		if err != nil {
			return Document{}, err
		}
		doc.Games[i] = slot
	}

	doc.Deposit = DefaultDeposit()
	if w.Deposit != nil {
		if w.Deposit.Threshold != nil {
			doc.Deposit.Threshold = *w.Deposit.Threshold
		}
		if w.Deposit.Amount != nil {
			doc.Deposit.Amount = *w.Deposit.Amount
		}
	}
	if doc.Deposit.Threshold < 0 {
		return Document{}, parseErr("deposit.threshold", "must be >= 0, got %d", doc.Deposit.Threshold)
	}
	if doc.Deposit.Amount < 0 {
		return Document{}, parseErr("deposit.amount", "must be >= 0, got %d", doc.Deposit.Amount)
	}

	sched, err := parseSchedule(w.Schedule)
	if err != nil {
		return Document{}, err
	}
	doc.Schedule = sched

	if w.System != nil {
		doc.System = *w.System
	}
	return doc, nil
}

func parseSlot(i int, ws wireSlot) (GameSlot, error) {
	path := fmt.Sprintf("games[%d]", i)
	slot := GameSlot{
		ID:            i + 1,
		Active:        Defaults["games.active"].(bool),
		Mode:          Mode(ws.Mode),
		AnalysisRange: defaultRange("games.analysis_range"),
	}
	if ws.ID != 0 && ws.ID != i+1 {
		return GameSlot{}, parseErr(path+".id", "slot at position %d must have id %d, got %d", i, i+1, ws.ID)
	}
	if ws.Active != nil {
		slot.Active = *ws.Active
	}
	if !slot.Mode.Valid() {
		return GameSlot{}, parseErr(path+".mode", "unknown mode %q", ws.Mode)
	}
	if ws.Numbers != nil {
		slot.Numbers = *ws.Numbers
	}
	if len(ws.AnalysisRange) > 0 && string(ws.AnalysisRange) != "null" {
		if err := slot.AnalysisRange.UnmarshalJSON(ws.AnalysisRange); err != nil {
			return GameSlot{}, parseErr(path+".analysis_range", "%v", err)
		}
	}
	return slot, nil
}

func parseSchedule(ws *wireSchedule) (Schedule, error) {
	s := DefaultSchedule()
	if ws == nil {
		return s, nil
	}
	days := []struct {
		path string
		in   string
		out  *Weekday
	}{
		{"schedule.deposit_day", ws.DepositDay, &s.DepositDay},
		{"schedule.buy_day", ws.BuyDay, &s.BuyDay},
		{"schedule.check_day", ws.CheckDay, &s.CheckDay},
	}
	for _, d := range days {
		if strings.TrimSpace(d.in) == "" {
			continue
		}
		wd := Weekday(d.in)
		if !wd.Valid() {
			return Schedule{}, parseErr(d.path, "unknown weekday %q", d.in)
		}
		*d.out = wd
	}
	times := []struct {
		in  string
		out *string
	}{
		{ws.DepositTime, &s.DepositTime},
		{ws.BuyTime, &s.BuyTime},
		{ws.CheckTime, &s.CheckTime},
	}
	for _, t := range times {
		if strings.TrimSpace(t.in) != "" {
			*t.out = t.in
		}
	}
	return s, nil
}
