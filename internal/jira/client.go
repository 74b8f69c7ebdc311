package jira

import (
	"time"
)

// Client is the narrow interface the fetch layer consumes. Query execution
// and authentication live behind it; callers never see protocol details.
type Client interface {
	// BoardSprints lists the non-historic sprints of a board.
	BoardSprints(boardID int) ([]SprintDTO, error)
	// SprintReport returns the scope-change report for one sprint.
	SprintReport(boardID int, sprintID int) (*SprintReportDTO, error)
	// SearchIssues runs a JQL query with paging.
	SearchIssues(jql string, startAt int, maxResults int) (*SearchResponse, error)
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Personal Access Token, preferred when set.
	Token string

	// Data Center Cookies
	XsrfToken  string
	SessionID  string
	RememberMe string

	// Load Balancer Cookies
	GCILB string
	GCLB  string

	// Performance Settings
	RequestDelay time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewDataCenterClient(cfg)
}
