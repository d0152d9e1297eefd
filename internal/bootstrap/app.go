// Package bootstrap assembles the application graph shared by the API
// server and the queue worker.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"hospup-backend/internal/assets"
	"hospup-backend/internal/capture"
	"hospup-backend/internal/compose"
	"hospup-backend/internal/queue"
	"hospup-backend/internal/renders"
	"hospup-backend/internal/shared/config"
	"hospup-backend/internal/shared/server"
	"hospup-backend/internal/shared/storage/db"
	"hospup-backend/internal/shared/storage/object"
	localstore "hospup-backend/internal/shared/storage/object/local"
	s3store "hospup-backend/internal/shared/storage/object/s3"
	"hospup-backend/internal/templates"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	TemplatesRepo templates.Repo
	AssetsRepo    assets.Repo
	RendersRepo   renders.Repo

	TemplatesService *templates.Service
	AssetsService    *assets.Service
	RendersService   *renders.Service
	ComposeService   *compose.Service

	TemplateHandler *templates.Handler
	AssetHandler    *assets.Handler
	ComposeHandler  *compose.Handler
	RenderHandler   *renders.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		TemplateHandler: app.TemplateHandler,
		AssetHandler:    app.AssetHandler,
		ComposeHandler:  app.ComposeHandler,
		RenderHandler:   app.RenderHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.PublicMediaBase)
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicMediaBase), nil
	}
}

func buildQueue(ctx context.Context) (queue.Client, error) {
	if strings.TrimSpace(os.Getenv("HB_SQS_QUEUE_URL")) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.TemplatesRepo = &templates.PGRepo{DB: app.DB}
		app.AssetsRepo = &assets.PGRepo{DB: app.DB}
		app.RendersRepo = &renders.PGRepo{DB: app.DB}
	} else {
		app.TemplatesRepo = templates.NewMemoryRepo()
		app.AssetsRepo = assets.NewMemoryRepo()
		app.RendersRepo = renders.NewMemoryRepo()
	}

	app.TemplatesService = &templates.Service{Repo: app.TemplatesRepo}
	app.AssetsService = &assets.Service{Repo: app.AssetsRepo}

	if path := strings.TrimSpace(app.Config.TemplateSeedPath); path != "" {
		n, err := templates.SeedFromFile(context.Background(), app.TemplatesRepo, path)
		if err != nil {
			log.Printf("bootstrap: template seed failed: %v", err)
		} else if n > 0 {
			log.Printf("bootstrap: seeded %d templates from %s", n, path)
		}
	}

	var backend renders.BackendClient
	if strings.TrimSpace(app.Config.RenderBackendURL) != "" {
		backend = renders.NewHTTPBackend(app.Config.RenderBackendURL, app.Config.RenderAPIKey)
	}
	capturer := capture.NewRenderer(captureWorkDir(app.Config))

	app.RendersService = renders.NewService(app.RendersRepo, backend, capturer, app.Store, app.Queue)
	app.ComposeService = compose.NewService(app.TemplatesService, app.AssetsService, app.RendersService)

	app.TemplateHandler = templates.NewHandler(app.TemplatesService)
	app.AssetHandler = assets.NewHandler(app.AssetsService)
	app.ComposeHandler = compose.NewHandler(app.ComposeService)
	app.RenderHandler = renders.NewHandler(app.RendersService)
}

func captureWorkDir(cfg config.Config) string {
	base := strings.TrimSpace(cfg.LocalStoreDir)
	if base == "" {
		base = "data"
	}
	return base + string(os.PathSeparator) + "captures"
}
