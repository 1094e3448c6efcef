package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/heritagepool/poolops/internal/api/handlers"
	"github.com/heritagepool/poolops/internal/api/middleware"
	"github.com/heritagepool/poolops/internal/catalog"
	"github.com/heritagepool/poolops/internal/config"
	"github.com/heritagepool/poolops/internal/jobs"
	"github.com/heritagepool/poolops/internal/openai"
	"github.com/heritagepool/poolops/internal/poolbrain"
	"github.com/heritagepool/poolops/internal/repository"
	"github.com/heritagepool/poolops/internal/server"
	"github.com/heritagepool/poolops/internal/service"
	"github.com/heritagepool/poolops/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the poolops API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	interactionRepo := repository.NewInteractionRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	mappingRepo := repository.NewQueryMappingRepository(pool)
	patternRepo := repository.NewProductPatternRepository(pool)

	provider := poolbrain.NewClient(cfg.PoolbrainBaseURL, cfg.PoolbrainAPIKey,
		poolbrain.WithPageSize(cfg.PoolbrainPageSize))

	// The AI-search path tolerates a longer TTL than the browse path.
	searchCache := catalog.New(provider, cfg.SearchCacheTTL)
	browseCache := catalog.New(provider, cfg.BrowseCacheTTL)

	var oracleRanker service.ProductRanker
	var oracleTranscriber handlers.Transcriber
	var oracleDescriber handlers.QuoteDescriber
	if cfg.HasOpenAI() {
		oracle := openai.NewClientWithConfig(openai.Config{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.OpenAIModel,
			RankTimeout: cfg.OracleTimeout,
		})
		oracleRanker, oracleTranscriber, oracleDescriber = oracle, oracle, oracle
	} else {
		log.Println("OPENAI_API_KEY not set, AI product matching disabled")
		disabled := openai.Disabled{}
		oracleRanker, oracleTranscriber, oracleDescriber = disabled, disabled, disabled
	}

	specialty, err := service.LoadSpecialtyDictionary(cfg.SpecialtyPartsFile)
	if err != nil {
		return fmt.Errorf("failed to load specialty parts dictionary: %w", err)
	}

	learningSvc := service.NewLearningService(mappingRepo, patternRepo)
	feedbackSvc := service.NewFeedbackService(interactionRepo, feedbackRepo, learningSvc)
	matcherSvc := service.NewMatcherService(
		searchCache,
		oracleRanker,
		learningSvc,
		feedbackSvc,
		service.NewIntentClassifier(),
		specialty,
		nil,
	)

	routerCfg := server.RouterConfig{
		AuthValidator:     middleware.NewStaticKeyValidator(cfg.APIKeys),
		SearchHandler:     handlers.NewSearchHandler(matcherSvc),
		LearningHandler:   handlers.NewLearningHandler(feedbackSvc, learningSvc),
		CatalogHandler:    handlers.NewCatalogHandler(browseCache),
		TranscribeHandler: handlers.NewTranscribeHandler(oracleTranscriber),
		DescribeHandler:   handlers.NewDescribeHandler(oracleDescriber),
	}

	router := server.NewRouter(routerCfg)

	var refreshWorker *jobs.Worker
	if cfg.HasPoolbrain() {
		refreshProcessor := jobs.NewCatalogRefreshWorker(map[string]jobs.RefreshableCache{
			"search": searchCache,
			"browse": browseCache,
		})
		refreshWorker = jobs.NewWorker("catalog-refresh", refreshProcessor, cfg.RefreshInterval)
		go refreshWorker.Start(ctx)
		log.Println("catalog refresh worker started")
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if refreshWorker != nil {
		refreshWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
