package domain

import "time"

// SingletonID is the primary key of the one configuration and status row
// a bot instance owns.
const SingletonID = 1

// ConfigRecord stores the configuration document as submitted, with the
// account secrets sealed. It is a singleton row (ID = SingletonID).
//
// Fields:
//   - ID: always SingletonID.
//   - Body: the JSON document; unknown members are kept as sent.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type ConfigRecord struct {
	ID        uint   `gorm:"primaryKey"`
	Body      []byte `gorm:"type:blob;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the database table name for ConfigRecord.
func (ConfigRecord) TableName() string { return "config" }

// StatusRecord is the bot's self-reported state, merged field by field as
// the worker reports it.
//
// Fields:
//   - Balance: last known deposit balance in won.
//   - LatestResult: human-readable outcome of the most recent draw check.
//   - LastRun: when the worker last completed a run (nil before the first).
type StatusRecord struct {
	ID           uint       `json:"-"             gorm:"primaryKey"`
	Balance      int64      `json:"balance"       gorm:"not null;default:0"`
	LatestResult string     `json:"latest_result" gorm:"type:text;not null;default:''"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName returns the database table name for StatusRecord.
func (StatusRecord) TableName() string { return "status" }

// Idempotency remembers the reply to a side-effecting request so a retry
// carrying the same Idempotency-Key is answered without running it again.
//
// Fields:
//   - Route: the registered route the key belongs to (e.g. "/api/test/deposit").
//   - Key: the client-chosen Idempotency-Key.
//   - Status / Body: the HTTP status and JSON reply that were sent.
//   - ExpiresAt: after this the key may be reused.
type Idempotency struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Route     string    `gorm:"type:text;not null;uniqueIndex:idx_idempotency_route_key"`
	Key       string    `gorm:"type:text;not null;uniqueIndex:idx_idempotency_route_key"`
	Status    int       `gorm:"not null"`
	Body      []byte    `gorm:"type:blob"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
}

// TableName returns the database table name for Idempotency.
func (Idempotency) TableName() string { return "idempotency_keys" }
