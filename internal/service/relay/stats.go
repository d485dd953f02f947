package relay

import (
	"context"
	"fmt"
	"time"
)

type Stats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
	States      int `json:"states"`
}

func (s *service) GetStats(ctx context.Context) (Stats, error) {
	rooms, conns := s.connRepo.Stats()

	states, err := s.roomRepo.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count states: %w", err)
	}

	return Stats{
		Rooms:       rooms,
		Connections: conns,
		States:      states,
	}, nil
}

// RunEviction periodically drops room states older than the configured TTL.
// It returns immediately when eviction is disabled or the registry expires
// entries by itself.
func (s *service) RunEviction(ctx context.Context) {
	evicter, ok := s.roomRepo.(iEvicter)
	if !ok || s.roomTTL <= 0 {
		return
	}

	ticker := time.NewTicker(s.roomTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := evicter.EvictExpired(ctx, s.now().Add(-s.roomTTL)); err != nil {
				s.logger.WarnContext(ctx, "failed to evict room states", "error", err)
			}
		}
	}
}
