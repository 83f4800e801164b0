package jobs

import (
	"context"
	"log/slog"
	"time"
)

type Pruner interface {
	Prune(ctx context.Context) (int, error)
}

// NewDedupePruneJob drops remembered webhook message ids past their TTL.
func NewDedupePruneJob(pruner Pruner, every time.Duration, logger *slog.Logger) *Job {
	return NewJob("dedupe_prune", every, pruner.Prune, logger)
}
