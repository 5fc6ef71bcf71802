package storage

import (
	"context"

	"github.com/cuemby/keepalive/pkg/events"
	"github.com/cuemby/keepalive/pkg/log"
)

// pruneEvery is how many saved events pass between history trims
const pruneEvery = 100

// Record persists events from sub until ctx is done or sub is closed,
// keeping at most keep events (0 keeps everything).
func Record(ctx context.Context, store Store, sub events.Subscriber, keep int) error {
	logger := log.WithComponent("storage")
	saved := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub:
			if !ok {
				return nil
			}
			if err := store.SaveEvent(event); err != nil {
				logger.Error().Err(err).Str("event", string(event.Type)).Msg("Failed to save event")
				continue
			}
			saved++

			if keep > 0 && saved%pruneEvery == 0 {
				if n, err := store.PruneEvents(keep); err != nil {
					logger.Error().Err(err).Msg("Failed to prune event history")
				} else if n > 0 {
					logger.Debug().Int("removed", n).Msg("Pruned event history")
				}
			}
		}
	}
}
