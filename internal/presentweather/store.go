package presentweather

import (
	"context"
	"errors"
	"fmt"
)

// EpisodeStore keeps closed episodes across restarts. Implementations are
// called from the ingestion goroutine only.
type EpisodeStore interface {
	AppendEpisode(ctx context.Context, e Episode) error
	DeleteEpisode(ctx context.Context, start int64) error
	LoadRecentEpisodes(ctx context.Context, since int64) ([]Episode, error)
	PruneEpisodes(ctx context.Context, before int64) error
	Close() error
}

// Apply writes the store operations of an insertion: deletes first, then
// the closed episodes. All operations are attempted; the errors are joined.
func (ins Insertion) Apply(ctx context.Context, store EpisodeStore) error {
	var errs []error
	for _, start := range ins.Deleted {
		if err := store.DeleteEpisode(ctx, start); err != nil {
			errs = append(errs, fmt.Errorf("deleting episode %d: %w", start, err))
		}
	}
	for _, e := range ins.Closed {
		if err := store.AppendEpisode(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("appending episode %d: %w", e.Start, err))
		}
	}
	return errors.Join(errs...)
}
