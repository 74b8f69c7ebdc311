package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sprintlens/internal/cache"
	"sprintlens/internal/jira"
	"sprintlens/internal/storage"
)

// fakeJira serves canned agile API responses and counts calls.
type fakeJira struct {
	sprints map[int][]jira.SprintDTO
	reports map[int]*jira.SprintReportDTO
	issues  []jira.IssueDTO

	boardCalls  int
	reportCalls int
	searchCalls int
}

func (f *fakeJira) BoardSprints(boardID int) ([]jira.SprintDTO, error) {
	f.boardCalls++
	return f.sprints[boardID], nil
}

func (f *fakeJira) SprintReport(_ int, sprintID int) (*jira.SprintReportDTO, error) {
	f.reportCalls++
	report, ok := f.reports[sprintID]
	if !ok {
		return nil, fmt.Errorf("no report for sprint %d", sprintID)
	}
	return report, nil
}

func (f *fakeJira) SearchIssues(jql string, _ int, _ int) (*jira.SearchResponse, error) {
	f.searchCalls++
	var matched []jira.IssueDTO
	for _, issue := range f.issues {
		if strings.Contains(jql, issue.Key) {
			matched = append(matched, issue)
		}
	}
	return &jira.SearchResponse{Total: len(matched), Issues: matched}, nil
}

func closedSprintDTO(id int, start, end string) jira.SprintDTO {
	return jira.SprintDTO{
		ID:           id,
		Name:         fmt.Sprintf("Sprint %d", id),
		State:        "CLOSED",
		StartDate:    start + "T09:00:00.000+0000",
		EndDate:      end + "T09:00:00.000+0000",
		CompleteDate: end + "T10:00:00.000+0000",
	}
}

func closedReport(dto jira.SprintDTO, completed float64) *jira.SprintReportDTO {
	report := &jira.SprintReportDTO{Sprint: dto}
	report.Contents.CompletedIssuesEstimateSum = jira.EstimateSumDTO{Value: completed}
	report.Contents.CompletedIssues = []jira.ReportIssueDTO{
		reportIssue("HB-1", "alice", completed),
	}
	return report
}

func reportIssue(key, assignee string, points float64) jira.ReportIssueDTO {
	issue := jira.ReportIssueDTO{Key: key, Assignee: assignee}
	issue.EstimateStatistic.StatFieldValue.Value = points
	return issue
}

func newSprintFixture(t *testing.T) (*SprintService, *fakeJira, *storage.Memory) {
	t.Helper()

	s101 := closedSprintDTO(101, "2026-02-16", "2026-03-02")
	s102 := closedSprintDTO(102, "2026-03-02", "2026-03-16")
	s103 := closedSprintDTO(103, "2026-03-16", "2026-03-30")
	active := jira.SprintDTO{
		ID:        104,
		Name:      "Sprint 104",
		State:     "ACTIVE",
		StartDate: "2026-03-30T09:00:00.000+0000",
		EndDate:   "2026-04-13T09:00:00.000+0000",
	}

	client := &fakeJira{
		sprints: map[int][]jira.SprintDTO{
			112: {s101, s102, s103, active},
		},
		reports: map[int]*jira.SprintReportDTO{
			101: closedReport(s101, 10),
			102: closedReport(s102, 20),
			103: closedReport(s103, 30),
			104: {Sprint: active},
		},
	}

	backend := storage.NewMemory()
	store := cache.NewStore(backend, nil)
	if err := EnsureDatasets(context.Background(), store); err != nil {
		t.Fatalf("EnsureDatasets() error = %v", err)
	}

	svc := NewSprintService(store, client, map[string]int{"hb": 112}, "customfield_10002")
	return svc, client, backend
}

func TestSprintRequestValidation(t *testing.T) {
	svc, _, _ := newSprintFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  SprintRequest
	}{
		{"HistoryWithSpecificSprint", SprintRequest{TeamID: "hb", SprintID: 101, History: true}},
		{"SpecificSprintWithoutTeam", SprintRequest{SprintID: 101}},
		{"MissingTeam", SprintRequest{}},
		{"UnknownTeam", SprintRequest{TeamID: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.req.History {
				_, err = svc.History(ctx, tt.req, false)
			} else {
				_, err = svc.SprintStats(ctx, tt.req, false)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSprintStatsLastCompleted(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	record, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, false)
	if err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}

	if record.SprintID != 103 {
		t.Errorf("SprintID = %d, want the most recently closed sprint 103", record.SprintID)
	}
	if record.TotalCompletedPoints != 30 {
		t.Errorf("TotalCompletedPoints = %v, want 30", record.TotalCompletedPoints)
	}
	if client.boardCalls != 1 || client.reportCalls != 1 {
		t.Errorf("calls = %d board / %d report, want 1/1", client.boardCalls, client.reportCalls)
	}
}

func TestSprintStatsClosedServedFromCache(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	if _, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, false); err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}
	record, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, false)
	if err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}

	if record.SprintID != 103 {
		t.Errorf("SprintID = %d, want 103", record.SprintID)
	}
	if client.reportCalls != 1 {
		t.Errorf("report calls = %d, want the closed sprint served from cache", client.reportCalls)
	}
}

func TestSprintStatsActiveAlwaysRefetched(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		record, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb", SprintID: SprintCurrent}, false)
		if err != nil {
			t.Fatalf("SprintStats() error = %v", err)
		}
		if record.SprintID != 104 {
			t.Errorf("SprintID = %d, want the active sprint 104", record.SprintID)
		}
	}

	if client.reportCalls != 2 {
		t.Errorf("report calls = %d, want an active sprint refetched every time", client.reportCalls)
	}
}

func TestSprintStatsForceRefetches(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	if _, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, false); err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}
	if client.boardCalls != 1 || client.reportCalls != 1 {
		t.Fatalf("calls after first run = %d board / %d report, want 1/1", client.boardCalls, client.reportCalls)
	}

	// A forced run treats both the sprint list and the closed-sprint record
	// as expired.
	record, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, true)
	if err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}
	if record.SprintID != 103 {
		t.Errorf("SprintID = %d, want 103", record.SprintID)
	}
	if client.boardCalls != 2 || client.reportCalls != 2 {
		t.Errorf("calls after forced run = %d board / %d report, want 2/2", client.boardCalls, client.reportCalls)
	}

	// And the forced result lands in the cache for the next plain run.
	if _, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, false); err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}
	if client.reportCalls != 2 {
		t.Errorf("report calls after plain rerun = %d, want 2", client.reportCalls)
	}
}

func TestSprintStatsSpecificSprint(t *testing.T) {
	svc, _, _ := newSprintFixture(t)
	ctx := context.Background()

	record, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb", SprintID: 101}, false)
	if err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}
	if record.SprintID != 101 || record.TotalCompletedPoints != 10 {
		t.Errorf("record = %d/%v, want sprint 101 with 10 points", record.SprintID, record.TotalCompletedPoints)
	}

	_, err = svc.SprintStats(ctx, SprintRequest{TeamID: "hb", SprintID: 999}, false)
	if !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("unknown sprint error = %v, want ErrNotFound", err)
	}
}

func TestSprintStatsAddedIssueLookup(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	report := client.reports[103]
	report.Contents.IssueKeysAddedDuringSprint = map[string]bool{"HB-9": true}
	client.issues = []jira.IssueDTO{
		{Key: "HB-9", Fields: map[string]any{"customfield_10002": 5.0}},
	}

	record, err := svc.SprintStats(ctx, SprintRequest{TeamID: "hb"}, false)
	if err != nil {
		t.Fatalf("SprintStats() error = %v", err)
	}

	if client.searchCalls != 1 {
		t.Errorf("search calls = %d, want 1 lookup for added issue estimates", client.searchCalls)
	}
	if got := record.Snapshot.AddedPoints(); got != 5 {
		t.Errorf("AddedPoints() = %v, want 5", got)
	}
}

func TestHistoryAggregates(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	history, err := svc.History(ctx, SprintRequest{TeamID: "hb", HistoryLimit: 3}, false)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}

	// Most recent first: the active sprint, then the closed ones.
	if len(history.Sprints) != 3 {
		t.Fatalf("Sprints = %d records, want 3", len(history.Sprints))
	}
	wantIDs := []int{104, 103, 102}
	for i, id := range wantIDs {
		if history.Sprints[i].SprintID != id {
			t.Errorf("Sprints[%d] = %d, want %d", i, history.Sprints[i].SprintID, id)
		}
	}

	agg := history.Aggregate
	if len(agg.Order) != 3 || agg.Order[0] != 102 || agg.Order[2] != 104 {
		t.Fatalf("asc order = %v, want [102 103 104]", agg.Order)
	}

	newest := agg.Sprints[103]
	if newest.CompletedPoints.Actual != 30 || newest.CompletedPoints.RunningSum != 50 || newest.CompletedPoints.RunningAvg != 25 {
		t.Errorf("sprint 103 completed points = %+v, want actual 30 sum 50 avg 25", newest.CompletedPoints)
	}

	if client.reportCalls != 3 {
		t.Errorf("report calls = %d, want one per sprint", client.reportCalls)
	}
}

func TestHistoryResultCachedAndForced(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()
	req := SprintRequest{TeamID: "hb", HistoryLimit: 3}

	if _, err := svc.History(ctx, req, false); err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if client.reportCalls != 3 {
		t.Fatalf("report calls after first run = %d, want 3", client.reportCalls)
	}

	// The assembled history is cached whole; a rerun touches Jira not at all.
	history, err := svc.History(ctx, req, false)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if client.boardCalls != 1 || client.reportCalls != 3 {
		t.Errorf("calls after cached rerun = %d board / %d report, want 1/3", client.boardCalls, client.reportCalls)
	}
	if len(history.Sprints) != 3 || history.Aggregate == nil || len(history.Aggregate.Order) != 3 {
		t.Errorf("cached history lost shape: %d sprints, aggregate %v", len(history.Sprints), history.Aggregate)
	}
	if got := history.Aggregate.Sprints[103].CompletedPoints.RunningAvg; got != 25 {
		t.Errorf("cached aggregate running avg = %v, want 25", got)
	}

	// A different limit is a different cached document: the history is
	// reassembled, though closed sprints still come from their own cache.
	if _, err := svc.History(ctx, SprintRequest{TeamID: "hb", HistoryLimit: 2}, false); err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if client.reportCalls != 4 {
		t.Errorf("report calls after new limit = %d, want only the active sprint refetched", client.reportCalls)
	}

	// Force refetches the sprint list and every sprint report.
	if _, err := svc.History(ctx, req, true); err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if client.boardCalls != 2 || client.reportCalls != 7 {
		t.Errorf("calls after forced run = %d board / %d report, want 2/7", client.boardCalls, client.reportCalls)
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	svc, client, _ := newSprintFixture(t)
	ctx := context.Background()

	history, err := svc.History(ctx, SprintRequest{TeamID: "hb"}, false)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history.Sprints) != 4 {
		t.Errorf("Sprints = %d records, want all 4 under the default limit", len(history.Sprints))
	}
	if client.reportCalls != 4 {
		t.Errorf("report calls = %d, want 4", client.reportCalls)
	}
}
