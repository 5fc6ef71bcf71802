package storage

import (
	"time"

	"github.com/cuemby/keepalive/pkg/events"
)

// Store defines the interface for watchdog state storage
type Store interface {
	// Events
	SaveEvent(event *events.Event) error
	ListEvents(limit int) ([]*events.Event, error)
	PruneEvents(keep int) (int, error)

	// Alerts
	AlertStore

	// Utility
	Close() error
}

// AlertStore remembers when an alert was last sent for a key
type AlertStore interface {
	LastAlert(key string) (time.Time, bool, error)
	RecordAlert(key string, at time.Time) error
}
