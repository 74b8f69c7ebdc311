package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sprintlens/internal/jira"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira jira.Config

	// MongoURI selects the persistent cache backend. Empty means the
	// in-memory backend, which lives only as long as the process.
	MongoURI      string
	MongoDatabase string

	// Teams maps short team ids to Jira agile board ids.
	Teams map[string]int

	// PointsField is the Jira custom field carrying story point estimates.
	PointsField string

	// ReleaseProject is the default project key for release reports.
	ReleaseProject string

	DataPath            string
	LogDir              string
	WarmConcurrency     int
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory first
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	teams, err := ParseTeamBoards(getEnv("TEAM_BOARDS", ""))
	if err != nil {
		return nil, err
	}

	delaySecs, _ := strconv.Atoi(getEnv("JIRA_REQUEST_DELAY_SECONDS", "10"))
	warmConcurrency, _ := strconv.Atoi(getEnv("WARM_CONCURRENCY", "4"))

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:      getEnv("JIRA_URL", ""),
			XsrfToken:    getEnv("JIRA_XSRF_TOKEN", ""),
			SessionID:    getEnv("JIRA_SESSION_ID", ""),
			RememberMe:   getEnv("JIRA_REMEMBERME_COOKIE", ""),
			Token:        getEnv("JIRA_TOKEN", ""),
			GCILB:        getEnv("JIRA_GCILB", ""),
			GCLB:         getEnv("JIRA_GCLB", ""),
			RequestDelay: time.Duration(delaySecs) * time.Second,
		},
		MongoURI:            getEnv("MONGO_URI", ""),
		MongoDatabase:       getEnv("MONGO_DATABASE", "sprintlens"),
		Teams:               teams,
		PointsField:         getEnv("JIRA_POINTS_FIELD", "customfield_10002"),
		ReleaseProject:      getEnv("RELEASE_PROJECT", ""),
		DataPath:            dataPath,
		LogDir:              logDir,
		WarmConcurrency:     warmConcurrency,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

// ParseTeamBoards parses the TEAM_BOARDS value, a comma-separated list of
// team:boardID pairs like "hb:112,plat:98".
func ParseTeamBoards(raw string) (map[string]int, error) {
	teams := make(map[string]int)
	if strings.TrimSpace(raw) == "" {
		return teams, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, idStr, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("TEAM_BOARDS entry %q is not team:boardID", pair)
		}
		name = strings.TrimSpace(name)
		boardID, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil || name == "" || boardID <= 0 {
			return nil, fmt.Errorf("TEAM_BOARDS entry %q is not team:boardID", pair)
		}
		teams[name] = boardID
	}
	return teams, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
