package domain

import (
	"errors"
	"strings"
	"testing"
)

const fullDoc = `{
  "account": {"user_id": "u1", "user_pw": "p1", "pay_pw": "q1"},
  "games": [
    {"id": 1, "active": true,  "mode": "auto",      "numbers": "",            "analysis_range": 50},
    {"id": 2, "active": false, "mode": "manual",    "numbers": "1,2,3,4,5,6", "analysis_range": "50"},
    {"id": 3, "active": true,  "mode": "semi_auto", "numbers": "7,8",         "analysis_range": 10},
    {"id": 4, "active": true,  "mode": "ai",        "numbers": "",            "analysis_range": 100},
    {"id": 5, "active": true,  "mode": "max_first", "numbers": "",            "analysis_range": "all"}
  ],
  "deposit": {"threshold": 3000, "amount": 10000},
  "schedule": {"deposit_day": "Thursday", "deposit_time": "19:00", "buy_day": "Saturday",
               "buy_time": "09:30", "check_day": "Sunday", "check_time": "08:00"},
  "system": {"discord_webhook": "https://discord.example/hook"}
}`

func TestParse_FullDocument(t *testing.T) {
	doc, err := Parse([]byte(fullDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Account.UserID != "u1" || doc.Account.PayPW != "q1" {
		t.Fatalf("account mismatch: %+v", doc.Account)
	}
	for i, g := range doc.Games {
		if g.ID != i+1 {
			t.Fatalf("slot %d has id %d", i, g.ID)
		}
	}
	if doc.Games[1].Active || doc.Games[1].Numbers != "1,2,3,4,5,6" {
		t.Fatalf("inactive slot lost values: %+v", doc.Games[1])
	}
	if doc.Games[4].AnalysisRange != AnalysisAll {
		t.Fatalf("analysis all not parsed: %+v", doc.Games[4])
	}
	if doc.Deposit != (Deposit{Threshold: 3000, Amount: 10000}) {
		t.Fatalf("deposit mismatch: %+v", doc.Deposit)
	}
	if doc.Schedule.CheckDay != Sunday || doc.Schedule.BuyTime != "09:30" {
		t.Fatalf("schedule mismatch: %+v", doc.Schedule)
	}
}

func TestParse_DefaultsForMissingSections(t *testing.T) {
	raw := `{"account":{"user_id":"u1"},"games":[{"mode":"auto"},{"mode":"auto"},{"mode":"auto"},{"mode":"auto"},{"mode":"auto"}],
	         "schedule":{"buy_day":"Sunday"}}`
	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Deposit.Threshold != 5000 || doc.Deposit.Amount != 20000 {
		t.Fatalf("deposit defaults not applied: %+v", doc.Deposit)
	}
	want := Schedule{
		DepositDay: Friday, DepositTime: "18:00",
		BuyDay: Sunday, BuyTime: "10:00",
		CheckDay: Saturday, CheckTime: "23:00",
	}
	if doc.Schedule != want {
		t.Fatalf("schedule = %+v; want %+v", doc.Schedule, want)
	}
	for i, g := range doc.Games {
		if !g.Active {
			t.Fatalf("slot %d: absent active must default to true", i)
		}
		if g.ID != i+1 || g.AnalysisRange != Analysis50 {
			t.Fatalf("slot %d defaults: %+v", i, g)
		}
	}
	if doc.Account.UserPW != "" || doc.Account.PayPW != "" {
		t.Fatalf("empty secrets should stay empty")
	}
}

func TestParse_HardErrors(t *testing.T) {
	five := func(slot string) string {
		return `[` + strings.Repeat(`{"mode":"auto"},`, 4) + slot + `]`
	}
	cases := map[string]string{
		"four slots":     `{"games":[{"mode":"auto"},{"mode":"auto"},{"mode":"auto"},{"mode":"auto"}]}`,
		"six slots":      `{"games":` + `[` + strings.Repeat(`{"mode":"auto"},`, 5) + `{"mode":"auto"}]}`,
		"no slots":       `{}`,
		"bad mode":       `{"games":` + five(`{"mode":"lucky"}`) + `}`,
		"empty mode":     `{"games":` + five(`{"mode":""}`) + `}`,
		"bad range":      `{"games":` + five(`{"mode":"max_first","analysis_range":25}`) + `}`,
		"wrong id":       `{"games":` + five(`{"id":9,"mode":"auto"}`) + `}`,
		"bad weekday":    `{"games":` + five(`{"mode":"auto"}`) + `,"schedule":{"buy_day":"Caturday"}}`,
		"negative money": `{"games":` + five(`{"mode":"auto"}`) + `,"deposit":{"threshold":-1}}`,
		"wrong type":     `{"games":"five"}`,
		"not json":       `<html>`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("want ErrParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("want *ParseError, got %T", err)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	docs := []Document{DefaultDocument()}
	parsed, err := Parse([]byte(fullDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	docs = append(docs, parsed)

	for _, m := range Modes {
		for _, r := range AnalysisRanges {
			d := DefaultDocument()
			d.Account = Account{UserID: "id", UserPW: "", PayPW: "pay"}
			d.Games[2] = GameSlot{ID: 3, Active: false, Mode: m, Numbers: "1, 2", AnalysisRange: r}
			docs = append(docs, d)
		}
	}

	for i, d := range docs {
		raw, err := Marshal(d)
		if err != nil {
			t.Fatalf("doc %d: marshal: %v", i, err)
		}
		back, err := Parse(raw)
		if err != nil {
			t.Fatalf("doc %d: parse: %v", i, err)
		}
		if back != d {
			t.Fatalf("doc %d: round trip mismatch:\n got %+v\nwant %+v", i, back, d)
		}
	}
}

func TestReplaceSection(t *testing.T) {
	base := DefaultDocument()
	edit := DefaultDocument()
	edit.Account.UserID = "new"
	edit.Deposit.Amount = 1
	edit.Games[0].Mode = ModeAI

	got := base.ReplaceSection(SectionDeposit, edit)
	if got.Deposit.Amount != 1 || got.Account.UserID != "" || got.Games[0].Mode != ModeAuto {
		t.Fatalf("only deposit should change: %+v", got)
	}
	got = base.ReplaceSection(SectionPurchase, edit)
	if got.Games[0].Mode != ModeAI || got.Deposit.Amount == 1 {
		t.Fatalf("only games should change: %+v", got)
	}
	if !SectionSchedule.Valid() || Section("games").Valid() {
		t.Fatalf("section validity mismatch")
	}
}
