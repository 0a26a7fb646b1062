package queries

import (
	"context"
	"fmt"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
)

// SweepResultReader reads back the cached result of the most recent sweep.
type SweepResultReader interface {
	Latest(ctx context.Context) (*commands.RunSweepResult, error)
}

// GetLatestSweepHandler serves the most recent non-dry-run sweep result from
// the cache. A nil result with a nil error means no sweep has run yet (or
// the cache entry expired).
type GetLatestSweepHandler struct {
	cache SweepResultReader
}

// NewGetLatestSweepHandler creates a new query handler. The cache may be
// nil when Redis is not configured; the handler then always reports "no
// sweep yet".
func NewGetLatestSweepHandler(cache SweepResultReader) *GetLatestSweepHandler {
	return &GetLatestSweepHandler{cache: cache}
}

// Handle returns the latest cached sweep result, or nil when absent.
func (h *GetLatestSweepHandler) Handle(ctx context.Context) (*commands.RunSweepResult, error) {
	if h.cache == nil {
		return nil, nil
	}
	result, err := h.cache.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read latest sweep result: %w", err)
	}
	return result, nil
}
