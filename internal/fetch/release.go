package fetch

import (
	"context"
	"fmt"
	"time"

	"sprintlens/internal/cache"
	"sprintlens/internal/jira"
)

// ReleaseRequest asks for the issues deployed inside a date range.
type ReleaseRequest struct {
	Project string
	Start   time.Time
	End     time.Time
}

// ReleaseReport is the cached shape for one date range's deployments.
type ReleaseReport struct {
	Start  time.Time        `json:"release_date_start"`
	End    time.Time        `json:"release_date_end"`
	Issues []map[string]any `json:"issues"`
}

// releaseSearchLimit bounds one release query; ranges are short enough
// that paging has never been needed.
const releaseSearchLimit = 500

// ReleaseService owns the releases dataset.
type ReleaseService struct {
	store  *cache.Store
	client jira.Client
}

// NewReleaseService wires the release orchestrator.
func NewReleaseService(store *cache.Store, client jira.Client) *ReleaseService {
	return &ReleaseService{store: store, client: client}
}

// Releases returns the deployment report for a date range.
func (s *ReleaseService) Releases(ctx context.Context, req ReleaseRequest, force bool) (*ReleaseReport, error) {
	return Run(ctx, &releaseFetcher{svc: s, req: req}, force)
}

type releaseFetcher struct {
	svc *ReleaseService
	req ReleaseRequest
}

func (f *releaseFetcher) Validate() error {
	if f.req.Start.IsZero() || f.req.End.IsZero() {
		return fmt.Errorf("%w: a release report requires a start and end date", ErrInvalidInput)
	}
	if !f.req.Start.Before(f.req.End) {
		return fmt.Errorf("%w: release start date must precede the end date", ErrInvalidInput)
	}
	if f.req.Project == "" {
		return fmt.Errorf("%w: a release report requires a project key", ErrInvalidInput)
	}
	// Normalize so the cache key matches what the JSON layer stores.
	f.req.Start = f.req.Start.UTC()
	f.req.End = f.req.End.UTC()
	return nil
}

func (f *releaseFetcher) Cached(ctx context.Context) (*ReleaseReport, bool, error) {
	// Reports for the same range accumulate across refreshes; take the
	// newest fresh one.
	entries, err := f.svc.store.Load(ctx, Datasets[DatasetReleases], f.rangeQuery(),
		cache.OrderBy(cache.FieldStorageTime, true), cache.Limit(1))
	if err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, nil
	}

	report, err := fromEntry[*ReleaseReport](entries[0])
	if err != nil {
		return nil, false, err
	}
	return report, true, nil
}

func (f *releaseFetcher) Refresh(ctx context.Context) (*ReleaseReport, error) {
	jql := fmt.Sprintf(
		"project in (%s) AND (status changed to \"Production Deployed\" during ('%s','%s'))",
		f.req.Project,
		f.req.Start.Format("2006/01/02 15:04"),
		f.req.End.Format("2006/01/02 15:04"),
	)

	search, err := f.svc.client.SearchIssues(jql, 0, releaseSearchLimit)
	if err != nil {
		return nil, err
	}

	report := &ReleaseReport{
		Start: f.req.Start,
		End:   f.req.End,
	}
	for _, issue := range search.Issues {
		doc := map[string]any{"key": issue.Key}
		for k, v := range issue.Fields {
			doc[k] = v
		}
		report.Issues = append(report.Issues, doc)
	}

	entry, err := toEntry(report)
	if err != nil {
		return nil, err
	}
	if err := f.svc.store.Save(ctx, Datasets[DatasetReleases], []cache.Entry{entry}); err != nil {
		return nil, err
	}

	return report, nil
}

// rangeQuery matches a cached report by its exact date range. Times are
// compared in their stored JSON string form.
func (f *releaseFetcher) rangeQuery() cache.Query {
	return cache.Query{
		"release_date_start": f.req.Start.Format(time.RFC3339Nano),
		"release_date_end":   f.req.End.Format(time.RFC3339Nano),
	}
}
