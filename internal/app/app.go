// Package app wires the sync engine from configuration. Both the API server
// and the worker CLI build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"crew-recruitment-backend/config"
	"crew-recruitment-backend/internal/domain"
	"crew-recruitment-backend/internal/fieldmap"
	"crew-recruitment-backend/internal/repository/postgres"
	"crew-recruitment-backend/internal/usecase"
	"crew-recruitment-backend/pkg/database"
	"crew-recruitment-backend/pkg/embedding"
	"crew-recruitment-backend/pkg/lock"
	"crew-recruitment-backend/pkg/redis"
	"crew-recruitment-backend/pkg/secrets"
	"crew-recruitment-backend/pkg/storage"
	"crew-recruitment-backend/pkg/textextract"
	"crew-recruitment-backend/pkg/validation"
	"crew-recruitment-backend/pkg/vincere"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the wired usecases and the resources that must be closed.
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *pgxpool.Pool

	Candidates domain.CandidateRepository
	Jobs       domain.JobRepository

	Sync        *usecase.SyncService
	Queue       *usecase.RetryQueue
	Hydration   domain.HydrationUsecase
	Candidate   domain.CandidateUsecase
	Application domain.ApplicationUsecase
	Health      usecase.HealthUsecase
}

// New connects to every configured backend and wires the usecases. The
// dispatcher's worker pool is not started; callers that serve traffic call
// Sync.Start.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := database.NewPostgresConnection(ctx, cfg.DBUrl, database.PoolConfig{}, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &App{Config: cfg, Log: log, DB: db}

	if err := redis.Initialize(ctx, redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		if errors.Is(err, redis.ErrNotConfigured) {
			log.Info("Redis not configured")
		} else {
			log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		}
	}
	locker := lock.New(redis.Client(), "crew:lock:", log)

	dict, err := loadDictionary(cfg.Vincere.DictionaryPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	mapper := fieldmap.NewMapper(dict)
	log.Info("Field dictionary loaded", zap.String("version", dict.Version))

	ats, err := newATSClient(cfg.Vincere, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var files domain.FileStorage
	if cfg.Storage.Bucket != "" {
		s, err := storage.New(ctx, storage.Config{
			Provider:        storage.Provider(cfg.Storage.Provider),
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			Endpoint:        cfg.Storage.Endpoint,
			PublicBaseURL:   cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init storage: %w", err)
		}
		files = s
	} else if ats != nil {
		a.Close()
		return nil, errors.New("S3_BUCKET is required when VINCERE_ENABLED")
	}

	var embedder domain.Embedder
	if cfg.Hydration.GeminiAPIKey != "" {
		g, err := embedding.NewGemini(ctx, cfg.Hydration.GeminiAPIKey, cfg.Hydration.EmbeddingModel, cfg.Hydration.EmbeddingDimensions)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init embeddings: %w", err)
		}
		embedder = g
	} else {
		log.Info("GEMINI_API_KEY not set, CV text will not be embedded")
	}

	a.Candidates = postgres.NewCandidateRepository(db)
	a.Jobs = postgres.NewJobRepository(db)
	documents := postgres.NewDocumentRepository(db)
	applications := postgres.NewApplicationRepository(db)
	queueRepo := postgres.NewSyncQueueRepository(db)

	a.Queue = usecase.NewRetryQueueUsecase(queueRepo, usecase.RetryPolicy{MaxAttempts: cfg.Sync.MaxAttempts}, log.Named("retry_queue"))
	a.Sync = usecase.NewSyncUsecase(usecase.SyncDeps{
		ATS:        ats,
		Mapper:     mapper,
		Candidates: a.Candidates,
		Jobs:       a.Jobs,
		Documents:  documents,
		Storage:    files,
		Queue:      a.Queue,
		Locker:     locker,
		Logger:     log.Named("sync"),
	}, usecase.SyncConfig{
		RequestDelay: cfg.Sync.RequestDelay,
		AsyncTimeout: cfg.Sync.AsyncTimeout,
		LockTTL:      cfg.Sync.LockTTL,
		Workers:      cfg.Sync.Workers,
		Backlog:      cfg.Sync.Backlog,
	})
	a.Queue.SetReplayer(a.Sync)

	a.Hydration = usecase.NewHydrationUsecase(usecase.HydrationDeps{
		ATS:        ats,
		Mapper:     mapper,
		Candidates: a.Candidates,
		Documents:  documents,
		Storage:    files,
		Extractor:  textextract.New(),
		Embedder:   embedder,
		Locker:     locker,
		Logger:     log.Named("hydration"),
	}, usecase.HydrationConfig{MinTextLength: cfg.Hydration.MinTextLength})

	validate := validator.New()
	validation.RegisterValidators(validate)
	a.Candidate = usecase.NewCandidateUsecase(a.Candidates, a.Sync, validate)
	a.Application = usecase.NewApplicationUsecase(applications, a.Jobs, a.Candidates, a.Sync)

	optional := map[string]usecase.Pinger{"redis": nil}
	if redis.Client() != nil {
		optional["redis"] = usecase.PingFunc(redis.HealthCheck)
	}
	a.Health = usecase.NewHealthUsecase(
		map[string]usecase.Pinger{"database": usecase.PingFunc(db.Ping)},
		optional,
		ats != nil,
	)

	return a, nil
}

// Close releases the database pool and the Redis client.
func (a *App) Close() {
	if err := redis.Close(); err != nil {
		a.Log.Warn("Redis close failed", zap.Error(err))
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

func loadDictionary(path string) (*fieldmap.Dictionary, error) {
	if path == "" {
		return fieldmap.DefaultDictionary()
	}
	dict, err := fieldmap.LoadDictionary(path)
	if err != nil {
		return nil, fmt.Errorf("load field dictionary %s: %w", path, err)
	}
	return dict, nil
}

// newATSClient returns a nil interface when the integration is disabled so
// the usecases short-circuit.
func newATSClient(cfg config.VincereConfig, log *zap.Logger) (domain.ATSClient, error) {
	if !cfg.Enabled {
		log.Warn("Vincere integration disabled, sync operations are no-ops")
		return nil, nil
	}
	token, err := secrets.Optional(secrets.Source{
		Name:  "VINCERE_REFRESH_TOKEN",
		Value: cfg.RefreshToken,
		File:  cfg.RefreshTokenFile,
	})
	if err != nil {
		return nil, err
	}
	client, err := vincere.New(vincere.Config{
		Domain:       cfg.Domain,
		ClientID:     cfg.ClientID,
		APIKey:       cfg.APIKey,
		RefreshToken: token,
		Timeout:      cfg.Timeout,
	}, log.Named("vincere"))
	if err != nil {
		return nil, err
	}
	return client, nil
}
