package fetch

import (
	"context"
	"time"

	"sprintlens/internal/cache"
)

// Dataset kind names, used as CLI arguments and registry keys.
const (
	DatasetTeamSprints = "team_sprints"
	DatasetSprints     = "sprints"
	DatasetReleases    = "releases"
	DatasetResults     = "result_cache"
	DatasetWarmRuns    = "warm_runs"
)

// Datasets is the declarative policy table: one row per cached dataset
// kind. The orchestrators consult it; nothing computes policy at runtime.
// Registering a new cached dataset means adding a row here.
var Datasets = map[string]cache.Collection{
	// One derived stats record per sprint, replaced whenever the sprint is
	// refetched. No TTL: a closed sprint's stats never go stale, and an
	// active sprint's cached record is rejected by state, not by age.
	DatasetTeamSprints: {Name: "team_sprints", UniqueKey: "sprint_id"},

	// Abridged sprint objects per board, upserted by sprint id.
	DatasetSprints: {Name: "sprints", UniqueKey: "id", TTL: 2 * time.Hour},

	// Release reports accumulate per date range; freshness comes from TTL
	// alone.
	DatasetReleases: {Name: "releases", TTL: 8 * time.Hour},

	// Arbitrary result documents keyed by caller-supplied key; StorageType
	// is stamped per use to partition variants within the collection.
	DatasetResults: {Name: "result_cache", UniqueKey: "key", TTL: 2 * time.Hour},

	// Outcome of the most recent warm-all-teams run only.
	DatasetWarmRuns: {Name: "warm_runs", TTL: 3 * time.Hour, ClearBeforeAdd: true},
}

// EnsureDatasets prepares every registered collection (unique indexes).
// Called once at process start.
func EnsureDatasets(ctx context.Context, store *cache.Store) error {
	for _, col := range Datasets {
		if err := store.EnsureCollection(ctx, col); err != nil {
			return err
		}
	}
	return nil
}
