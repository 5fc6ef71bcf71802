package alert

import (
	"context"
	"fmt"

	"github.com/cuemby/keepalive/pkg/config"
)

// Notifier delivers an alert message to a topic
type Notifier interface {
	Publish(ctx context.Context, topic, subject, message string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, topic, subject, message string) error

// Publish calls f
func (f NotifierFunc) Publish(ctx context.Context, topic, subject, message string) error {
	return f(ctx, topic, subject, message)
}

// NewNotifier creates the notifier selected by cfg.Notifier. region is only
// used by SNS.
func NewNotifier(ctx context.Context, cfg config.AlertConfig, region string) (Notifier, error) {
	switch cfg.Notifier {
	case config.NotifierSNS:
		return NewSNSNotifier(ctx, region)
	case config.NotifierNtfy:
		return NewNtfyNotifier(cfg.Ntfy), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier)
	}
}
