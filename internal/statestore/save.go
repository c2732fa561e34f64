package statestore

import (
	"bytes"
	"context"
	"errors"

	"github.com/stagehand-dev/stagehand/internal/util/retry"
)

// SaveDefinition writes a definition under optimistic concurrency control.
// Each attempt reads the current object, then writes conditionally on the
// observed ETag (or on absence, for the first write). A lost race re-reads
// and tries again with backoff. Finding the identical content already
// stored is a successful no-op, not a conflict.
func (s *Store) SaveDefinition(ctx context.Context, name string, data []byte) error {
	attempt := func() error {
		current, etag, err := s.Get(ctx, name)
		switch {
		case errors.Is(err, ErrNotFound):
			if _, err := s.Put(ctx, name, data, PutOptions{IfNoneMatch: true}); err != nil {
				if errors.Is(err, ErrPersistenceConflict) {
					s.log.Info("definition appeared concurrently, retrying", "definition", name)
					return err
				}
				return retry.Fatal(err)
			}
			return nil
		case err != nil:
			return retry.Fatal(err)
		}

		if bytes.Equal(current, data) {
			return nil
		}

		if _, err := s.Put(ctx, name, data, PutOptions{IfMatch: etag}); err != nil {
			if errors.Is(err, ErrPersistenceConflict) {
				s.log.Info("definition changed concurrently, retrying", "definition", name)
				return err
			}
			return retry.Fatal(err)
		}
		return nil
	}

	return retry.WithExponentialBackoff(ctx, attempt,
		retry.WithMaxRetries(s.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(s.timeouts.RetryInitialDelay),
	)
}
