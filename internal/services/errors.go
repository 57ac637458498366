// Package services holds the console's reconciliation rules and the
// backend's use-cases. This file centralizes service-level error values so
// callers can check them with errors.Is and handlers can map them to HTTP
// results.
package services

import "errors"

// Console errors.
var (
	// ErrNotLoaded is returned by edits and saves before a dashboard
	// document has been fetched.
	ErrNotLoaded = errors.New("dashboard is not loaded")

	// ErrNotConfirmed is returned when the operator declines a destructive
	// action such as a deposit test.
	ErrNotConfirmed = errors.New("operator did not confirm")

	// ErrUnknownSlot is returned for slot ids outside 1..5.
	ErrUnknownSlot = errors.New("unknown game slot")

	// ErrAlreadyConfigured is returned by first-run setup on a backend
	// that already has an account.
	ErrAlreadyConfigured = errors.New("an account is already configured")
)

// Backend errors.
var (
	// ErrAlreadyRunning is returned when starting a bot that is up.
	ErrAlreadyRunning = errors.New("bot is already running")

	// ErrNotRunning is returned when stopping a bot that is down.
	ErrNotRunning = errors.New("bot is not running")

	// ErrNoCommand is returned when a bot or probe command is not configured.
	ErrNoCommand = errors.New("command not configured")

	// ErrMissingCredentials is returned when a probe lacks an id or password.
	ErrMissingCredentials = errors.New("user id and password are required")
)
