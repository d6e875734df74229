package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"mdx-backend/internal/documents"
	"mdx-backend/internal/ingest"
	"mdx-backend/internal/metadata"
	"mdx-backend/internal/queue"
	"mdx-backend/internal/shared/config"
	"mdx-backend/internal/shared/storage/db"
	"mdx-backend/internal/shared/storage/object"
	localstore "mdx-backend/internal/shared/storage/object/local"
	s3store "mdx-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the api, worker, and extract entry points.
type App struct {
	Config           config.Config
	DB               *sql.DB
	Store            object.ObjectStore
	Queue            queue.Client
	DocumentsRepo    documents.Repo
	MetadataStore    metadata.Store
	Pipeline         *ingest.Pipeline
	DocumentsService *documents.Service
	DocumentsHandler *documents.Handler
}

// Options tunes how dependencies are built per entry point.
type Options struct {
	DBOptions db.Options
	// RequireDB turns a missing DATABASE_URL into an error instead of the
	// in-memory fallback the API server uses for local development.
	RequireDB bool
	// SkipDuplicates makes the pipeline reuse done documents by content hash.
	SkipDuplicates bool
}

// Build prepares shared dependencies.
func Build(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app := &App{Config: cfg}

	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if opts.RequireDB {
			return nil, config.ErrMissingDatabaseURL
		}
		log.Printf("DATABASE_URL not set; using in-memory stores")
	} else {
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(opts.DBOptions))
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		app.DB = sqlDB
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if strings.TrimSpace(cfg.QueueURL) != "" {
		client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("build queue client: %w", err)
		}
		app.Queue = client
	}

	var finalizer ingest.Finalizer
	if app.DB != nil {
		app.DocumentsRepo = &documents.PGRepo{DB: app.DB}
		app.MetadataStore = &metadata.PGStore{DB: app.DB}
		finalizer = &ingest.PGFinalizer{DB: app.DB}
	} else {
		memRepo := documents.NewMemoryRepo()
		memStore := metadata.NewMemoryStore()
		memRepo.CoreLookup = func(documentID string) (map[string]string, bool) {
			core, err := memStore.GetCore(context.Background(), documentID)
			if err != nil {
				return nil, false
			}
			return core, true
		}
		app.DocumentsRepo = memRepo
		app.MetadataStore = memStore
		finalizer = &ingest.StoreFinalizer{Docs: memRepo, Meta: memStore}
	}

	app.Pipeline = &ingest.Pipeline{
		Docs:           app.DocumentsRepo,
		Finalize:       finalizer,
		Store:          app.Store,
		SkipDuplicates: opts.SkipDuplicates,
	}

	app.DocumentsService = &documents.Service{
		Repo:  app.DocumentsRepo,
		Meta:  app.MetadataStore,
		Store: app.Store,
		Queue: app.Queue,
	}
	app.DocumentsHandler = documents.NewHandler(app.DocumentsService)

	return app, nil
}

// Close releases held resources.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, fmt.Errorf("build s3 store: %w", err)
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}
