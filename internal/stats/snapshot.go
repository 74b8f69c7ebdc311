package stats

import (
	"slices"
	"time"
)

// SprintState is the lifecycle state Jira reports for a sprint.
type SprintState string

const (
	SprintActive SprintState = "ACTIVE"
	SprintClosed SprintState = "CLOSED"
	SprintFuture SprintState = "FUTURE"
)

// AddedIssue is an issue pulled into the sprint after it started, with its
// story-point estimate. Jira's sprint report gives no point total for added
// work, so the aggregator derives one from this list.
type AddedIssue struct {
	Key    string  `json:"key"`
	Points float64 `json:"points"`
}

// SprintSnapshot is one sprint's scope outcome as reported by Jira.
// Absent numeric fields are zero, never an error.
type SprintSnapshot struct {
	SprintID     int         `json:"sprint_id"`
	Name         string      `json:"name,omitempty"`
	State        SprintState `json:"state"`
	StartDate    time.Time   `json:"start_date"`
	EndDate      time.Time   `json:"end_date"`
	CompleteDate time.Time   `json:"complete_date,omitempty"`

	CompletedPoints  float64 `json:"completed_points"`
	IncompletePoints float64 `json:"incomplete_points"`
	PuntedPoints     float64 `json:"punted_points"`

	CompletedIssueCount  int `json:"completed_issue_count"`
	IncompleteIssueCount int `json:"incomplete_issue_count"`
	PuntedIssueCount     int `json:"punted_issue_count"`

	AddedIssues []AddedIssue `json:"added_issues,omitempty"`
}

// AddedPoints sums the story points of issues added during the sprint.
func (s SprintSnapshot) AddedPoints() float64 {
	var total float64
	for _, issue := range s.AddedIssues {
		total += issue.Points
	}
	return total
}

// TeamSprintStats is the per-sprint derived record cached for one team.
type TeamSprintStats struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name,omitempty"`
	BoardID  int    `json:"board_id"`
	SprintID int    `json:"sprint_id"`

	TotalCompletedPoints float64  `json:"total_completed_points"`
	ContributingDevs     []string `json:"contributing_devs,omitempty"`
	PointsStdDev         float64  `json:"points_std_dev"`

	ActualLengthDays float64 `json:"actual_length_days"`
	Overdue          bool    `json:"overdue"`

	Snapshot SprintSnapshot `json:"snapshot"`
}

// overdueAfter is how long an active sprint may run before it is flagged.
const overdueAfter = 16 * 24 * time.Hour

// BuildTeamSprintStats derives the cached per-sprint record from a snapshot
// and the completed points grouped by assignee.
func BuildTeamSprintStats(teamID, teamName string, boardID int, snap SprintSnapshot, pointsByAssignee map[string]float64, now time.Time) TeamSprintStats {
	var total float64
	devs := make([]string, 0, len(pointsByAssignee))
	points := make([]float64, 0, len(pointsByAssignee))
	for dev, p := range pointsByAssignee {
		devs = append(devs, dev)
		points = append(points, p)
		total += p
	}
	slices.Sort(devs)

	var length time.Duration
	overdue := false
	if snap.State == SprintActive {
		length = now.Sub(snap.StartDate)
		overdue = length > overdueAfter
	} else if !snap.CompleteDate.IsZero() {
		length = snap.CompleteDate.Sub(snap.StartDate)
	}

	return TeamSprintStats{
		TeamID:               teamID,
		TeamName:             teamName,
		BoardID:              boardID,
		SprintID:             snap.SprintID,
		TotalCompletedPoints: total,
		ContributingDevs:     devs,
		PointsStdDev:         StdDev(points),
		ActualLengthDays:     length.Hours() / 24,
		Overdue:              overdue,
		Snapshot:             snap,
	}
}
