// Package bootstrap seeds the known-mint registry before the first scan
// cycle. Every configured source must succeed: starting with a partial
// snapshot would make old tokens look newly created.
package bootstrap

import (
	"context"
	"fmt"
	"log"
)

// SnapshotSource yields a set of already-existing mint addresses.
type SnapshotSource interface {
	// Name identifies the source in logs.
	Name() string
	// Mints returns the mint addresses known to this source.
	Mints(ctx context.Context) ([]string, error)
}

// Load collects the union of all sources. Any source failure aborts the
// whole load.
func Load(ctx context.Context, logger *log.Logger, sources ...SnapshotSource) ([]string, error) {
	if logger == nil {
		logger = log.Default()
	}

	seen := make(map[string]struct{})
	var union []string

	for _, src := range sources {
		mints, err := src.Mints(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap source %s: %w", src.Name(), err)
		}
		added := 0
		for _, m := range mints {
			if m == "" {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			union = append(union, m)
			added++
		}
		logger.Printf("Bootstrap source %s: %d mints (%d new)", src.Name(), len(mints), added)
	}

	return union, nil
}
