package app

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/Joseph14078/JoAuth/config"
	"github.com/Joseph14078/JoAuth/internal/auth"
	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/internal/middleware"
	"github.com/Joseph14078/JoAuth/internal/routes"
	"github.com/Joseph14078/JoAuth/internal/schema"
	"github.com/Joseph14078/JoAuth/internal/server"
	mongoUserRepo "github.com/Joseph14078/JoAuth/internal/userrepo/mongo"
	postgresUserRepo "github.com/Joseph14078/JoAuth/internal/userrepo/postgres"
	"github.com/Joseph14078/JoAuth/internal/userservice"
	"github.com/Joseph14078/JoAuth/pkg/databases/mongo"
	"github.com/Joseph14078/JoAuth/pkg/databases/postgres"
	"github.com/Joseph14078/JoAuth/pkg/hasher"
	"github.com/Joseph14078/JoAuth/pkg/metrics"
	"github.com/Joseph14078/JoAuth/pkg/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	structValidator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ConnectTimeout bounds database connection and index creation at startup.
var ConnectTimeout = 30 * time.Second

// App represents the main application, containing server and configuration.
type App struct {
	Server   interfaces.Server
	Config   *config.ServiceConfig
	Logger   interfaces.Logger
	userRepo interfaces.UserRepository
	logSink  io.Closer
}

// NewApp loads the configuration and wires storage, the account service and
// the HTTP routes.
func NewApp(configPath string) (*App, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
	}

	if err := app.initializeLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()

	schemas, err := app.initializeSchemas()
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}

	signer, err := app.initializeSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session signer: %w", err)
	}

	dbClient, err := app.initializeDBClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database client: %w", err)
	}

	userRepo, err := app.initializeUserRepo(ctx, dbClient)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user repository: %w", err)
	}
	app.userRepo = userRepo

	userService := userservice.NewUserService(
		userRepo,
		schemas,
		hasher.NewBcryptHasher(cfg.Auth.SaltRounds),
		signer,
		app.Logger.WithContext(map[string]interface{}{"component": "userservice"}),
	)

	appMetrics := metrics.NewMetrics(cfg.ServiceName)
	routes.RegisterMetrics(appMetrics)

	route := routes.NewRoute(appMetrics, userService, signer, signer.TTL(), structValidator.New(), app.Logger)

	app.Server = server.NewServer(cfg.Host, cfg.Port, app.Logger)
	if err := app.addRoutes(route, appMetrics); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *App) addRoutes(route *routes.Route, appMetrics interfaces.Metrics) error {
	metricsHandler := promhttp.HandlerFor(
		appMetrics.GetRegistry(),
		promhttp.HandlerOpts{})

	guard := app.credentialGuard(appMetrics)

	handlers := []struct {
		path    string
		handler http.Handler
	}{
		{routes.MetricsRouteAPI, metricsHandler},
		{routes.SignupRouteAPI, http.HandlerFunc(route.Signup)},
		{routes.LoginRouteAPI, guard(http.HandlerFunc(route.Login))},
		{routes.EditRouteAPI, guard(http.HandlerFunc(route.Edit))},
		{routes.RemoveRouteAPI, guard(http.HandlerFunc(route.Remove))},
		{routes.MeRouteAPI, http.HandlerFunc(route.Me)},
	}
	for _, h := range handlers {
		traced := otelhttp.NewHandler(h.handler, h.path)
		if err := app.Server.AddRoute(h.path, traced.ServeHTTP); err != nil {
			return fmt.Errorf("failed to add route %s: %w", h.path, err)
		}
	}
	return nil
}

// credentialGuard returns the middleware for routes that check passwords.
// They share one per-client budget. Without a configured rate the handlers
// are returned unchanged.
func (app *App) credentialGuard(appMetrics interfaces.Metrics) func(http.Handler) http.Handler {
	if app.Config.Auth.LoginRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiter := middleware.NewClientLimiter(app.Config.Auth.LoginRateLimit, app.Config.Auth.LoginBurst)
	return middleware.RateLimitMiddleware(limiter, func() {
		appMetrics.IncCounter(routes.LoginRateLimitedTotal)
	})
}

// Run starts the server and blocks until it stops.
func (app *App) Run() error {
	if err := app.Server.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops the server, then releases the database connection and the
// log file.
func (app *App) Shutdown(ctx context.Context) error {
	var firstErr error
	if app.Server != nil {
		if err := app.Server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if app.userRepo != nil {
		if err := app.userRepo.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	app.Logger.Info("Shutdown complete")
	if app.logSink != nil {
		if err := app.logSink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (app *App) initializeLogger() error {
	var logger interfaces.Logger
	switch app.Config.LogOutput {
	case "", config.LogOutputStdout:
		logger = zerolog.NewZerologLogger(app.Config.ServiceName, os.Stdout)
	case config.LogOutputStderr:
		logger = zerolog.NewZerologLogger(app.Config.ServiceName, os.Stderr)
	default:
		f, err := os.OpenFile(app.Config.LogOutput, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		app.logSink = f
		logger = zerolog.NewJSONLogger(app.Config.ServiceName, f)
	}
	logger.SetLevel(app.Config.LogLevel)
	app.Logger = logger
	return nil
}

func (app *App) initializeSchemas() (*schema.Registry, error) {
	var fsys fs.FS = schema.Embedded()
	if dir := app.Config.Auth.SchemaDir; dir != "" {
		fsys = os.DirFS(dir)
	}

	registry := schema.NewRegistry(app.Logger)
	if err := registry.Init(fsys); err != nil {
		return nil, err
	}
	return registry, nil
}

func (app *App) initializeSigner() (*auth.Signer, error) {
	privateKey, created, err := auth.LoadOrCreateECDSAPrivateKey(app.Config.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	if created {
		app.Logger.Warn("Generated a new session signing key", "path", app.Config.PrivateKeyPath)
	}
	return auth.NewSigner(privateKey, app.Config.Auth.SessionTTL)
}

func (app *App) initializeDBClient(ctx context.Context) (interfaces.DBClient, error) {
	var dbClient interfaces.DBClient
	var err error
	logger := app.Logger.WithContext(map[string]interface{}{"component": "database"})

	switch app.Config.Database.Type {
	case config.DatabaseTypeMongo:
		dbClient, err = mongo.NewMongoDB(&app.Config.Database.MongoDB, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}
		if err = dbClient.Connect(ctx, app.Config.Database.MongoDB.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}

	case config.DatabaseTypePostgres:
		dbClient = postgres.NewPostgresDatabaseClient(&app.Config.Database.Postgres, logger)
		if err = dbClient.Connect(ctx, app.Config.Database.Postgres.DSN); err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported database type: %s", app.Config.Database.Type)
	}

	return dbClient, nil
}

func (app *App) initializeUserRepo(ctx context.Context, dbClient interfaces.DBClient) (interfaces.UserRepository, error) {
	var userRepo interfaces.UserRepository
	var err error

	switch app.Config.Database.Type {
	case config.DatabaseTypeMongo:
		userRepo, err = mongoUserRepo.NewMongoUserRepository(dbClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB repository: %w", err)
		}

	case config.DatabaseTypePostgres:
		userRepo, err = postgresUserRepo.NewPostgresUserRepository(dbClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported database type: %s", app.Config.Database.Type)
	}

	if err = userRepo.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indices: %w", err)
	}

	return userRepo, nil
}
