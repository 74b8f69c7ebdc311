package fetch

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog/log"

	"sprintlens/internal/cache"
)

// WarmResult is one team's outcome from a warm run.
type WarmResult struct {
	TeamID   string `json:"team_id"`
	SprintID int    `json:"sprint_id,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// WarmAll force-refreshes the last-completed sprint stats of every
// configured team. Each team maps to an independent dataset key, so the
// refreshes run in parallel without coordination. Per-team failures are
// reported, not fatal; the run's outcome replaces the previous one in the
// warm_runs dataset.
func (s *SprintService) WarmAll(ctx context.Context, concurrency int) ([]WarmResult, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	teams := make([]string, 0, len(s.teams))
	for team := range s.teams {
		teams = append(teams, team)
	}
	slices.Sort(teams)

	results := make([]WarmResult, len(teams))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, team := range teams {
		i, team := i, team
		g.Go(func() error {
			record, err := s.SprintStats(gctx, SprintRequest{TeamID: team}, true)
			if err != nil {
				log.Warn().Err(err).Str("team", team).Msg("Warm refresh failed")
				results[i] = WarmResult{TeamID: team, Error: err.Error()}
				return nil
			}
			results[i] = WarmResult{TeamID: team, SprintID: record.SprintID, Success: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := make([]cache.Entry, 0, len(results))
	for _, res := range results {
		entry, err := toEntry(res)
		if err != nil {
			return nil, err
		}
		batch = append(batch, entry)
	}
	if len(batch) > 0 {
		if err := s.store.Save(ctx, Datasets[DatasetWarmRuns], batch); err != nil {
			return nil, err
		}
	}

	return results, nil
}
