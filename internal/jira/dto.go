package jira

import (
	"strconv"
	"time"
)

// SprintDTO is the abridged sprint object returned by the sprint query API
// and embedded in the sprint report.
type SprintDTO struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
	CompleteDate string `json:"completeDate"`
}

// SprintQueryResponse wraps the sprint list endpoint payload.
type SprintQueryResponse struct {
	Sprints []SprintDTO `json:"sprints"`
}

// EstimateSumDTO is Jira's odd text/value pair for point totals. The text
// is the string "null" when the board has no estimation configured.
type EstimateSumDTO struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// Points resolves the estimate sum to a number, treating "null" as zero.
func (e EstimateSumDTO) Points() float64 {
	if e.Value != 0 {
		return e.Value
	}
	if e.Text == "null" || e.Text == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(e.Text, 64); err == nil {
		return v
	}
	return 0
}

// ReportIssueDTO is one issue entry inside a sprint report.
type ReportIssueDTO struct {
	Key               string               `json:"key"`
	Assignee          string               `json:"assignee"`
	EstimateStatistic EstimateStatisticDTO `json:"currentEstimateStatistic"`
}

// EstimateStatisticDTO carries the issue's point estimate at report time.
type EstimateStatisticDTO struct {
	StatFieldValue struct {
		Value float64 `json:"value"`
	} `json:"statFieldValue"`
}

// SprintContentsDTO is the scope-change body of a sprint report.
type SprintContentsDTO struct {
	CompletedIssues                   []ReportIssueDTO `json:"completedIssues"`
	IssuesNotCompletedInCurrentSprint []ReportIssueDTO `json:"issuesNotCompletedInCurrentSprint"`
	PuntedIssues                      []ReportIssueDTO `json:"puntedIssues"`
	IssueKeysAddedDuringSprint        map[string]bool  `json:"issueKeysAddedDuringSprint"`

	CompletedIssuesEstimateSum    EstimateSumDTO `json:"completedIssuesEstimateSum"`
	IssuesNotCompletedEstimateSum EstimateSumDTO `json:"issuesNotCompletedEstimateSum"`
	PuntedIssuesEstimateSum       EstimateSumDTO `json:"puntedIssuesEstimateSum"`
}

// SprintReportDTO is the full GreenHopper sprint report response.
type SprintReportDTO struct {
	Sprint   SprintDTO         `json:"sprint"`
	Contents SprintContentsDTO `json:"contents"`
}

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	Total  int        `json:"total"`
	Issues []IssueDTO `json:"issues"`
}

// IssueDTO keeps the search-result fields untyped: the fetch layer only
// reaches into them for configured custom fields.
type IssueDTO struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`
}

// FieldFloat reads a numeric field, tolerating the string and null forms
// Jira hands back for custom fields.
func (i IssueDTO) FieldFloat(name string) float64 {
	switch v := i.Fields[name].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}

var sprintTimeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"02/Jan/06 3:04 PM",
	"2/Jan/06 3:04 PM",
}

// ParseSprintTime parses the date formats the agile APIs mix freely.
// An unparseable or empty value yields the zero time.
func ParseSprintTime(s string) time.Time {
	for _, layout := range sprintTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
