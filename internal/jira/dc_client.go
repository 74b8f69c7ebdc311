package jira

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type dcClient struct {
	cfg         Config
	httpClient  *http.Client
	lastRequest time.Time

	// Session Cache
	cache      map[string]*cacheEntry
	cacheMutex sync.Mutex
}

type cacheEntry struct {
	Value       any
	Expiration  time.Time
	AccessCount int
	OriginalTTL time.Duration
}

// NewDataCenterClient creates a client for Jira Data Center instances,
// authenticating via PAT or session cookies.
func NewDataCenterClient(cfg Config) Client {
	if cfg.RequestDelay == 0 {
		cfg.RequestDelay = 10 * time.Second
	}
	return &dcClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		cache: make(map[string]*cacheEntry),
	}
}

func (c *dcClient) getFromCache(key string) (any, bool) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Session cache miss")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Session cache hit")

	if time.Now().After(entry.Expiration) {
		delete(c.cache, key)
		return nil, false
	}

	// Sliding window extension
	if entry.AccessCount < 6 {
		entry.Expiration = time.Now().Add(entry.OriginalTTL)
		entry.AccessCount++
		log.Trace().Str("key", key).Int("count", entry.AccessCount).Msg("Extended session cache TTL")
	}

	return entry.Value, true
}

func (c *dcClient) addToCache(key string, value any, ttl time.Duration) {
	c.cacheMutex.Lock()
	defer c.cacheMutex.Unlock()

	c.cache[key] = &cacheEntry{
		Value:       value,
		Expiration:  time.Now().Add(ttl),
		OriginalTTL: ttl,
		AccessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to session cache")
}

func (c *dcClient) throttle(isMetadata bool) {
	// Metadata requests (sprint lists) are allowed to "burst" sequentially
	// to avoid artificial delay during the setup phase.
	if isMetadata {
		c.lastRequest = time.Now()
		return
	}

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.cfg.RequestDelay {
		wait := c.cfg.RequestDelay - elapsed
		log.Debug().Dur("wait", wait).Msg("Throttling Jira request")
		time.Sleep(wait)
	}
	c.lastRequest = time.Now()
}

func (c *dcClient) authenticateRequest(req *http.Request) {
	// 1. Prioritize Personal Access Token (PAT)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
		return
	}

	// 2. Fallback to session cookies
	cookies := []struct {
		name  string
		value string
	}{
		{"atlassian.xsrf.token", c.cfg.XsrfToken},
		{"JSESSIONID", c.cfg.SessionID},
		{"seraph.rememberme.cookie", c.cfg.RememberMe},
		{"GCILB", c.cfg.GCILB},
		{"GCLB", c.cfg.GCLB},
	}

	var cookiePairs []string
	for _, cookie := range cookies {
		if cookie.value != "" {
			// We build the string manually to avoid net/http's strict RFC 6265
			// validation which would drop valid Jira/GCLB cookies containing
			// double quotes.
			cookiePairs = append(cookiePairs, fmt.Sprintf("%s=%s", cookie.name, cookie.value))
		}
	}

	if len(cookiePairs) > 0 {
		req.Header.Set("Cookie", strings.Join(cookiePairs, "; "))
	}
}

// getJSON performs an authenticated GET and decodes the response body.
func (c *dcClient) getJSON(requestURL string, subject string, out any) error {
	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		return err
	}

	c.authenticateRequest(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s not found", subject)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("Jira authentication failed (401/403). Please check your token or session cookies.")
		case http.StatusTooManyRequests:
			retryAfter := resp.Header.Get("Retry-After")
			if retryAfter != "" {
				return fmt.Errorf("Jira rate limit exceeded (429). Retry after %s seconds.", retryAfter)
			}
			return fmt.Errorf("Jira rate limit exceeded (429).")
		default:
			return fmt.Errorf("Jira API returned status %d for %s", resp.StatusCode, subject)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", subject, err)
	}
	return nil
}

func (c *dcClient) BoardSprints(boardID int) ([]SprintDTO, error) {
	cacheKey := fmt.Sprintf("sprints:%d", boardID)
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.([]SprintDTO), nil
	}

	c.throttle(true)

	// The sprintquery endpoint excludes historic sprints, which the plain
	// agile API cannot do.
	requestURL := fmt.Sprintf("%s/rest/greenhopper/1.0/sprintquery/%d?includeHistoricSprints=false&includeFutureSprints=false",
		c.cfg.BaseURL, boardID)

	var result SprintQueryResponse
	if err := c.getJSON(requestURL, fmt.Sprintf("board %d sprints", boardID), &result); err != nil {
		return nil, err
	}

	c.addToCache(cacheKey, result.Sprints, 5*time.Minute)
	return result.Sprints, nil
}

func (c *dcClient) SprintReport(boardID int, sprintID int) (*SprintReportDTO, error) {
	cacheKey := fmt.Sprintf("sprintreport:%d:%d", boardID, sprintID)
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.(*SprintReportDTO), nil
	}

	c.throttle(false)

	requestURL := fmt.Sprintf("%s/rest/greenhopper/1.0/rapid/charts/sprintreport?rapidViewId=%d&sprintId=%d",
		c.cfg.BaseURL, boardID, sprintID)
	log.Info().Int("board", boardID).Int("sprint", sprintID).Msg("Requesting sprint report from Jira")

	var result SprintReportDTO
	if err := c.getJSON(requestURL, fmt.Sprintf("sprint report %d", sprintID), &result); err != nil {
		return nil, err
	}

	c.addToCache(cacheKey, &result, 10*time.Minute)
	return &result, nil
}

func (c *dcClient) SearchIssues(jql string, startAt int, maxResults int) (*SearchResponse, error) {
	cacheKey := fmt.Sprintf("search:%s:%d:%d", jql, startAt, maxResults)
	if val, ok := c.getFromCache(cacheKey); ok {
		return val.(*SearchResponse), nil
	}

	c.throttle(false)

	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", fmt.Sprintf("%d", startAt))
	params.Set("maxResults", fmt.Sprintf("%d", maxResults))

	searchURL := fmt.Sprintf("%s/rest/api/2/search?%s", c.cfg.BaseURL, params.Encode())
	log.Info().Msg("Requesting issues from Jira")
	log.Debug().Str("jql", jql).Msg("Jira search details")

	var result SearchResponse
	if err := c.getJSON(searchURL, "issue search", &result); err != nil {
		return nil, err
	}

	c.addToCache(cacheKey, &result, 10*time.Minute)
	return &result, nil
}
