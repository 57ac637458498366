package domain

// Defaults is the single table of fallback values, keyed by field path.
// Parse uses it to fill absent members and renderers use it for the
// initial value of empty inputs.
var Defaults = map[string]any{
	"deposit.threshold":      5000,
	"deposit.amount":         20000,
	"schedule.deposit_day":   Friday,
	"schedule.deposit_time":  "18:00",
	"schedule.buy_day":       Saturday,
	"schedule.buy_time":      "10:00",
	"schedule.check_day":     Saturday,
	"schedule.check_time":    "23:00",
	"games.active":           true,
	"games.mode":             ModeAuto,
	"games.analysis_range":   Analysis50,
	"system.discord_webhook": "",
}

func defaultInt(path string) int             { return Defaults[path].(int) }
func defaultString(path string) string       { return Defaults[path].(string) }
func defaultWeekday(path string) Weekday     { return Defaults[path].(Weekday) }
func defaultRange(path string) AnalysisRange { return Defaults[path].(AnalysisRange) }

// DefaultDeposit returns the deposit section used when none is stored.
func DefaultDeposit() Deposit {
	return Deposit{
		Threshold: defaultInt("deposit.threshold"),
		Amount:    defaultInt("deposit.amount"),
	}
}

// DefaultSchedule returns the schedule section used when none is stored.
func DefaultSchedule() Schedule {
	return Schedule{
		DepositDay:  defaultWeekday("schedule.deposit_day"),
		DepositTime: defaultString("schedule.deposit_time"),
		BuyDay:      defaultWeekday("schedule.buy_day"),
		BuyTime:     defaultString("schedule.buy_time"),
		CheckDay:    defaultWeekday("schedule.check_day"),
		CheckTime:   defaultString("schedule.check_time"),
	}
}

// DefaultDocument is the document a backend creates on first contact:
// no account, five active auto slots, default deposit and schedule.
func DefaultDocument() Document {
	doc := Document{
		Deposit:  DefaultDeposit(),
		Schedule: DefaultSchedule(),
		System:   System{DiscordWebhook: defaultString("system.discord_webhook")},
	}
	for i := range doc.Games {
		doc.Games[i] = GameSlot{
			ID:            i + 1,
			Active:        Defaults["games.active"].(bool),
			Mode:          Defaults["games.mode"].(Mode),
			AnalysisRange: defaultRange("games.analysis_range"),
		}
	}
	return doc
}
