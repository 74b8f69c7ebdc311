package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sprintlens/internal/cache"
	"sprintlens/internal/jira"
	"sprintlens/internal/stats"
)

// Sprint selectors usable in place of a concrete sprint id.
const (
	// SprintLastCompleted picks the most recently closed sprint.
	SprintLastCompleted = -1
	// SprintCurrent picks the active sprint.
	SprintCurrent = -2
)

// SprintRequest is the parameter set for sprint data retrieval.
type SprintRequest struct {
	// TeamID is the short team name configured in TEAM_BOARDS.
	TeamID string
	// SprintID is a concrete sprint id, a selector constant, or 0 which
	// defaults to SprintLastCompleted.
	SprintID int
	// History requests the full per-team sprint history plus aggregate.
	History bool
	// HistoryLimit caps how many sprints the history covers (default 5).
	HistoryLimit int
}

// SprintHistory is the history result: the individually cached per-sprint
// records in most-recent-first order, plus the running aggregate computed
// over them.
type SprintHistory struct {
	Sprints   []stats.TeamSprintStats `json:"sprint_data"`
	Aggregate *stats.SprintAggregate  `json:"aggregate_data"`
}

// defaultHistoryLimit matches how far back the history report looks when
// the caller does not say.
const defaultHistoryLimit = 5

// SprintService owns the sprint and sprint-history datasets.
type SprintService struct {
	store       *cache.Store
	client      jira.Client
	results     *ResultCache
	teams       map[string]int // team id -> board id
	pointsField string
	now         func() time.Time
}

// NewSprintService wires the sprint orchestrators. teams maps team ids to
// Jira board ids; pointsField names the story-points custom field.
func NewSprintService(store *cache.Store, client jira.Client, teams map[string]int, pointsField string) *SprintService {
	return &SprintService{
		store:       store,
		client:      client,
		results:     NewResultCache(store),
		teams:       teams,
		pointsField: pointsField,
		now:         time.Now,
	}
}

// SprintStats returns one team's stats for one sprint. A forced run treats
// every cached record along the way as expired.
func (s *SprintService) SprintStats(ctx context.Context, req SprintRequest, force bool) (stats.TeamSprintStats, error) {
	return Run(ctx, &sprintFetcher{svc: s, req: req, force: force}, force)
}

// History returns the per-sprint records and running aggregate for a team.
func (s *SprintService) History(ctx context.Context, req SprintRequest, force bool) (*SprintHistory, error) {
	req.History = true
	return Run(ctx, &historyFetcher{svc: s, req: req, force: force}, force)
}

// validate applies the shared parameter rules for sprint requests.
func (s *SprintService) validate(req SprintRequest) error {
	if req.History && req.SprintID != 0 {
		return fmt.Errorf("%w: sprint history and a specific sprint id are mutually exclusive", ErrInvalidInput)
	}
	if req.SprintID > 0 && req.TeamID == "" {
		return fmt.Errorf("%w: a specific sprint id requires a team id", ErrInvalidInput)
	}
	if req.TeamID == "" {
		return fmt.Errorf("%w: a team id is required", ErrInvalidInput)
	}
	if _, ok := s.teams[req.TeamID]; !ok {
		return fmt.Errorf("%w: unknown team %q", ErrInvalidInput, req.TeamID)
	}
	return nil
}

// sprintRecord is the abridged sprint object cached in the sprints dataset.
type sprintRecord struct {
	ID           int       `json:"id"`
	BoardID      int       `json:"board_id"`
	Name         string    `json:"name"`
	State        string    `json:"state"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	CompleteDate time.Time `json:"complete_date"`
}

// sprintList returns the board's sprints, most recent end date first,
// refreshing the sprints dataset on miss. force skips the cache probe and
// always refetches the list.
func (s *SprintService) sprintList(ctx context.Context, boardID int, force bool) ([]sprintRecord, error) {
	col := Datasets[DatasetSprints]

	var entries []cache.Entry
	if !force {
		var err error
		entries, err = s.store.Load(ctx, col, cache.Query{"board_id": boardID},
			cache.OrderBy("end_date", true))
		if err != nil {
			return nil, err
		}
	}

	if len(entries) == 0 {
		dtos, err := s.client.BoardSprints(boardID)
		if err != nil {
			return nil, err
		}
		if len(dtos) == 0 {
			return nil, nil
		}

		batch := make([]cache.Entry, 0, len(dtos))
		for _, dto := range dtos {
			entry, err := toEntry(sprintRecord{
				ID:           dto.ID,
				BoardID:      boardID,
				Name:         dto.Name,
				State:        dto.State,
				StartDate:    jira.ParseSprintTime(dto.StartDate),
				EndDate:      jira.ParseSprintTime(dto.EndDate),
				CompleteDate: jira.ParseSprintTime(dto.CompleteDate),
			})
			if err != nil {
				return nil, err
			}
			batch = append(batch, entry)
		}
		if err := s.store.Save(ctx, col, batch); err != nil {
			return nil, err
		}

		entries, err = s.store.Load(ctx, col, cache.Query{"board_id": boardID},
			cache.OrderBy("end_date", true))
		if err != nil {
			return nil, err
		}
	}

	records := make([]sprintRecord, 0, len(entries))
	for _, e := range entries {
		rec, err := fromEntry[sprintRecord](e)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// resolveSprint turns a selector or concrete id into a sprint record.
func (s *SprintService) resolveSprint(ctx context.Context, boardID int, selector int, force bool) (sprintRecord, error) {
	records, err := s.sprintList(ctx, boardID, force)
	if err != nil {
		return sprintRecord{}, err
	}

	if selector > 0 {
		for _, rec := range records {
			if rec.ID == selector {
				return rec, nil
			}
		}
		return sprintRecord{}, fmt.Errorf("sprint %d on board %d: %w", selector, boardID, cache.ErrNotFound)
	}

	want := string(stats.SprintClosed)
	if selector == SprintCurrent {
		want = string(stats.SprintActive)
	}
	for _, rec := range records {
		if rec.State == want {
			return rec, nil
		}
	}
	return sprintRecord{}, fmt.Errorf("no %s sprint on board %d: %w", strings.ToLower(want), boardID, cache.ErrNotFound)
}

// detailedSprint returns the cached per-sprint record when it was captured
// after the sprint closed, and refetches otherwise. A record cached while
// the sprint was still active is thrown away and rebuilt, and a forced call
// rebuilds unconditionally.
func (s *SprintService) detailedSprint(ctx context.Context, teamID string, boardID int, sprintID int, force bool) (stats.TeamSprintStats, error) {
	col := Datasets[DatasetTeamSprints]

	if !force {
		entries, err := s.store.Load(ctx, col, cache.Query{"sprint_id": sprintID})
		if err != nil {
			return stats.TeamSprintStats{}, err
		}
		if len(entries) > 0 {
			cached, err := fromEntry[stats.TeamSprintStats](entries[0])
			if err != nil {
				return stats.TeamSprintStats{}, err
			}
			if cached.Snapshot.State == stats.SprintClosed {
				return cached, nil
			}
		}
	}

	report, err := s.client.SprintReport(boardID, sprintID)
	if err != nil {
		return stats.TeamSprintStats{}, err
	}

	// The report only lists keys for issues added mid-sprint; their point
	// estimates need a separate lookup.
	var added []jira.IssueDTO
	if keys := jira.AddedKeys(report); len(keys) > 0 {
		jql := fmt.Sprintf("key in ('%s')", strings.Join(keys, "','"))
		search, err := s.client.SearchIssues(jql, 0, len(keys))
		if err != nil {
			return stats.TeamSprintStats{}, err
		}
		added = search.Issues
	}

	snap := jira.MapSprintReport(report, added, s.pointsField)
	record := stats.BuildTeamSprintStats(teamID, teamID, boardID, snap,
		jira.PointsByAssignee(report.Contents.CompletedIssues), s.now())

	entry, err := toEntry(record)
	if err != nil {
		return stats.TeamSprintStats{}, err
	}
	if err := s.store.Update(ctx, col, []cache.Entry{entry}); err != nil {
		return stats.TeamSprintStats{}, err
	}

	return record, nil
}

// sprintFetcher retrieves one sprint's stats. The whole-result cache probe
// is a no-op: per-sprint caching happens inside detailedSprint, after the
// selector has been resolved against the sprint list. force reaches those
// inner probes through the fetcher itself.
type sprintFetcher struct {
	svc   *SprintService
	req   SprintRequest
	force bool
}

func (f *sprintFetcher) Validate() error {
	return f.svc.validate(f.req)
}

func (f *sprintFetcher) Cached(context.Context) (stats.TeamSprintStats, bool, error) {
	return stats.TeamSprintStats{}, false, nil
}

func (f *sprintFetcher) Refresh(ctx context.Context) (stats.TeamSprintStats, error) {
	boardID := f.svc.teams[f.req.TeamID]

	selector := f.req.SprintID
	if selector == 0 {
		selector = SprintLastCompleted
	}

	sprint, err := f.svc.resolveSprint(ctx, boardID, selector, f.force)
	if err != nil {
		return stats.TeamSprintStats{}, err
	}

	return f.svc.detailedSprint(ctx, f.req.TeamID, boardID, sprint.ID, f.force)
}

// storageTypeHistory partitions cached whole-history documents inside the
// result_cache dataset.
const storageTypeHistory = "sprint_history"

// historyFetcher retrieves a team's sprint history and its aggregate. The
// assembled result is cached as a single result_cache document per team and
// limit; the per-sprint records underneath are cached individually as well.
type historyFetcher struct {
	svc   *SprintService
	req   SprintRequest
	force bool
}

func (f *historyFetcher) Validate() error {
	return f.svc.validate(f.req)
}

func (f *historyFetcher) resultKey() string {
	limit := f.req.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return fmt.Sprintf("history:%s:%d", f.req.TeamID, limit)
}

func (f *historyFetcher) Cached(ctx context.Context) (*SprintHistory, bool, error) {
	entry, err := f.svc.results.Get(ctx, f.resultKey(), storageTypeHistory, 0)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	history, err := fromEntry[*SprintHistory](entry)
	if err != nil {
		return nil, false, err
	}
	return history, true, nil
}

func (f *historyFetcher) Refresh(ctx context.Context) (*SprintHistory, error) {
	boardID := f.svc.teams[f.req.TeamID]

	limit := f.req.HistoryLimit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	records, err := f.svc.sprintList(ctx, boardID, f.force)
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}

	// Most recent first, the order sprintList returns; the aggregator
	// reverses into ascending order itself.
	var (
		sprints   []stats.TeamSprintStats
		snapshots []stats.SprintSnapshot
	)
	for _, rec := range records {
		record, err := f.svc.detailedSprint(ctx, f.req.TeamID, boardID, rec.ID, f.force)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("sprint", rec.ID).Str("team", f.req.TeamID).Msg("Collected sprint for history")
		sprints = append(sprints, record)
		snapshots = append(snapshots, record.Snapshot)
	}

	aggregate, err := stats.AggregateHistory(snapshots)
	if err != nil {
		return nil, err
	}

	history := &SprintHistory{
		Sprints:   sprints,
		Aggregate: aggregate,
	}

	entry, err := toEntry(history)
	if err != nil {
		return nil, err
	}
	if err := f.svc.results.Put(ctx, f.resultKey(), storageTypeHistory, entry); err != nil {
		return nil, err
	}

	return history, nil
}
