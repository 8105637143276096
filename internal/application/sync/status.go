package sync

import (
	"errors"
	"time"
)

// ErrSyncAlreadyRunning is returned when a sync run is requested while
// another run holds the mutual exclusion flag.
var ErrSyncAlreadyRunning = errors.New("sync: a sync run is already in progress")

// ErrAuthCooldown is returned when sync is suspended after too many
// consecutive authentication failures against the WAWI API.
var ErrAuthCooldown = errors.New("sync: suspended after repeated authentication failures")

// Mode identifies the kind of sync run
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
	ModeCustomer    Mode = "customer"
)

// Progress counts the entities touched by the current or last run
type Progress struct {
	Customers       int `json:"customers"`
	Orders          int `json:"orders"`
	OrderLines      int `json:"orderLines"`
	Products        int `json:"products"`
	Attributes      int `json:"attributes"`
	DiscountGroups  int `json:"discountGroups"`
}

// SyncError is one recorded per-entity failure. The run continues past
// individual record failures; the list lets operators inspect them later.
type SyncError struct {
	Entity     string    `json:"entity"`
	WawiID     int64     `json:"wawiId"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// RunStatus is a point-in-time snapshot of the orchestrator state
type RunStatus struct {
	IsRunning     bool        `json:"isRunning"`
	Mode          Mode        `json:"mode,omitempty"`
	CurrentStep   string      `json:"currentStep,omitempty"`
	StartedAt     *time.Time  `json:"startedAt,omitempty"`
	FinishedAt    *time.Time  `json:"finishedAt,omitempty"`
	Progress      Progress    `json:"progress"`
	Errors        []SyncError `json:"errors"`
	CooldownUntil *time.Time  `json:"cooldownUntil,omitempty"`
}
