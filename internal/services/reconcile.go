package services

import (
	"encoding/json"

	"github.com/tbourn/lotto-console/internal/domain"
)

// SaveStrategy selects what a section save transmits.
type SaveStrategy int

const (
	// FullSnapshot sends the whole current edit state no matter which
	// section was saved; unsaved edits in other sections go along.
	FullSnapshot SaveStrategy = iota
	// SectionMerge sends the baseline with only the saved section
	// replaced from the edit state.
	SectionMerge
)

// SecretPolicy selects how blank passwords in the edit state are sent.
type SecretPolicy int

const (
	// SecretsOverwrite sends blank passwords as blanks, replacing the
	// stored ones.
	SecretsOverwrite SecretPolicy = iota
	// SecretsKeepOnBlank treats a blank password as "unchanged" and sends
	// the baseline value instead.
	SecretsKeepOnBlank
)

// Reconciler produces the document to persist from an edit.
type Reconciler struct {
	Strategy SaveStrategy
	Secrets  SecretPolicy
}

// ValidateAccount rejects an account with any empty credential.
func ValidateAccount(a domain.Account) error {
	switch {
	case a.UserID == "":
		return &domain.ValidationError{Field: "account.user_id", Reason: "required"}
	case a.UserPW == "":
		return &domain.ValidationError{Field: "account.user_pw", Reason: "required"}
	case a.PayPW == "":
		return &domain.ValidationError{Field: "account.pay_pw", Reason: "required"}
	}
	return nil
}

// BootstrapMerge replaces the account member of the fetched document raw
// with a. Every other top-level member is passed through as received,
// including members this client does not know about.
func BootstrapMerge(raw []byte, a domain.Account) ([]byte, error) {
	if err := ValidateAccount(a); err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, &domain.ParseError{Reason: err.Error()}
	}
	if members == nil {
		return nil, &domain.ParseError{Reason: "document is not a JSON object"}
	}
	acct, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	members["account"] = acct
	return json.Marshal(members)
}

// SectionSave returns the document to persist when section is saved from
// the edit state, given the last acknowledged baseline. The buy time is
// validated only when the schedule section is the one being saved.
func (r Reconciler) SectionSave(section domain.Section, edit, baseline domain.Document) (domain.Document, error) {
	if !section.Valid() {
		return domain.Document{}, &domain.ValidationError{Field: "section", Reason: "unknown section " + string(section)}
	}
	if section == domain.SectionSchedule {
		if err := ValidateBuyTime(edit.Schedule.BuyTime); err != nil {
			return domain.Document{}, err
		}
	}

	out := edit
	if r.Strategy == SectionMerge {
		out = baseline.ReplaceSection(section, edit)
	}
	if r.Secrets == SecretsKeepOnBlank {
		if out.Account.UserPW == "" {
			out.Account.UserPW = baseline.Account.UserPW
		}
		if out.Account.PayPW == "" {
			out.Account.PayPW = baseline.Account.PayPW
		}
	}
	return out, nil
}
