package jira

import (
	"slices"

	"sprintlens/internal/stats"
)

// MapSprintReport transforms a GreenHopper sprint report into a snapshot.
// addedIssues are the full issue objects for the report's added-keys set
// (fetched separately: the report itself carries only their keys), and
// pointsField names the story-points custom field to read from them.
func MapSprintReport(report *SprintReportDTO, addedIssues []IssueDTO, pointsField string) stats.SprintSnapshot {
	snap := stats.SprintSnapshot{
		SprintID:     report.Sprint.ID,
		Name:         report.Sprint.Name,
		State:        stats.SprintState(report.Sprint.State),
		StartDate:    ParseSprintTime(report.Sprint.StartDate),
		EndDate:      ParseSprintTime(report.Sprint.EndDate),
		CompleteDate: ParseSprintTime(report.Sprint.CompleteDate),

		CompletedPoints:  report.Contents.CompletedIssuesEstimateSum.Points(),
		IncompletePoints: report.Contents.IssuesNotCompletedEstimateSum.Points(),
		PuntedPoints:     report.Contents.PuntedIssuesEstimateSum.Points(),

		CompletedIssueCount:  len(report.Contents.CompletedIssues),
		IncompleteIssueCount: len(report.Contents.IssuesNotCompletedInCurrentSprint),
		PuntedIssueCount:     len(report.Contents.PuntedIssues),
	}

	for _, issue := range addedIssues {
		snap.AddedIssues = append(snap.AddedIssues, stats.AddedIssue{
			Key:    issue.Key,
			Points: issue.FieldFloat(pointsField),
		})
	}

	return snap
}

// PointsByAssignee groups an issue list's point estimates by assignee.
// Unassigned issues are skipped; their points still count toward the
// completed sum taken from the estimate totals.
func PointsByAssignee(issues []ReportIssueDTO) map[string]float64 {
	byAssignee := make(map[string]float64)
	for _, issue := range issues {
		if issue.Assignee == "" {
			continue
		}
		byAssignee[issue.Assignee] += issue.EstimateStatistic.StatFieldValue.Value
	}
	return byAssignee
}

// AddedKeys returns the sorted issue keys the report marks as added during
// the sprint.
func AddedKeys(report *SprintReportDTO) []string {
	if len(report.Contents.IssueKeysAddedDuringSprint) == 0 {
		return nil
	}
	keys := make([]string, 0, len(report.Contents.IssueKeysAddedDuringSprint))
	for k := range report.Contents.IssueKeysAddedDuringSprint {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
