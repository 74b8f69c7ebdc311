package commands

import (
	"sprintlens/internal/cache"
	"sprintlens/internal/config"
	"sprintlens/internal/fetch"
	"sprintlens/internal/jira"
	"sprintlens/internal/logging"
	"sprintlens/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	jiraClient jira.Client
	store      *cache.Store
	mongo      *storage.Mongo

	sprintSvc  *fetch.SprintService
	releaseSvc *fetch.ReleaseService
)

var rootCmd = &cobra.Command{
	Use:   "sprintlens",
	Short: "Sprintlens reports team sprint statistics from Jira",
	Long: `A reporting tool that retrieves sprint reports, sprint history with running
aggregates, and release deployment reports from Jira, caching every dataset
with per-dataset freshness windows.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		// Load configuration
		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		// Pick the cache backend: Mongo when configured, in-memory otherwise.
		var backend cache.Backend
		if cfg.MongoURI != "" {
			mongo, err = storage.NewMongo(cmd.Context(), cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
			}
			backend = mongo
			log.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB cache backend")
		} else {
			backend = storage.NewMemory()
			log.Info().Msg("Using in-memory cache backend")
		}

		notifier := cache.NewNotifier()
		notifier.Subscribe(cache.LogHandler())
		store = cache.NewStore(backend, notifier)

		if err := fetch.EnsureDatasets(cmd.Context(), store); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare cache datasets")
		}

		// Initialize Jira Client
		jiraClient = jira.NewClient(cfg.Jira)

		sprintSvc = fetch.NewSprintService(store, jiraClient, cfg.Teams, cfg.PointsField)
		releaseSvc = fetch.NewReleaseService(store, jiraClient)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("sprintlens starting")
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if mongo != nil {
			if err := mongo.Close(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("Failed to close MongoDB connection")
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
