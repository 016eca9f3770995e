// Package server initializes and runs the tokenkeeper server. It selects the
// token store and identity backends from configuration, runs migrations,
// serves gRPC and shuts down gracefully on SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/config"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/identity"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/password"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/tokenkeeper/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	manager     repomanager.RepositoryManager
	signer      *auth.Signer
	authService *services.AuthService
}

// NewApp validates cfg and builds every component. Nothing is served until Run.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	accessKey, refreshKey, err := c.SigningKeys()
	if err != nil {
		return nil, err
	}
	signer, err := auth.NewSigner(accessKey, refreshKey, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("signer init error: %w", err)
	}

	app := &App{config: c, logger: logger, signer: signer}

	if c.StoreBackend == config.StorePostgres || c.IdentityBackend == config.IdentityPostgres {
		app.db, err = sql.Open("pgx", c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}

	app.manager = app.newRepositoryManager()
	if err := app.manager.RunMigrations(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("store init error: %w", err)
	}

	app.authService = services.NewAuthService(app.manager, app.newResolver(), password.NewAuto(), signer, logger)

	return app, nil
}

func (app *App) newRepositoryManager() repomanager.RepositoryManager {
	switch app.config.StoreBackend {
	case config.StorePostgres:
		return repomanager.NewPostgresRepositoryManager(app.db)
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     app.config.RedisAddr,
			Password: app.config.RedisPassword,
			DB:       app.config.RedisDB,
		})
		return repomanager.NewRedisRepositoryManager(client, app.config.RedisKeyPrefix)
	default:
		app.logger.Warn(context.Background(), "using in-memory token store; sessions are lost on restart")
		return repomanager.NewInMemoryRepositoryManager()
	}
}

func (app *App) newResolver() identity.Resolver {
	if app.config.IdentityBackend == config.IdentityPostgres {
		return identity.NewPostgresResolver(app.db)
	}
	return identity.NewHTTPResolver(app.config.UsersServiceURL, app.config.UsersServiceTimeout)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.signer)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the stores.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreBackend, "identity", app.config.IdentityBackend)

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")

	return runErr
}

// Close releases the token store and the database pool.
func (app *App) Close() {
	if app.manager != nil {
		if err := app.manager.Close(); err != nil {
			app.logger.Error(context.Background(), "error closing token store", "error", err)
		}
	}
	// The postgres manager owns the pool; otherwise the resolver borrowed it.
	if app.db != nil && app.config.StoreBackend != config.StorePostgres {
		if err := app.db.Close(); err != nil {
			app.logger.Error(context.Background(), "error closing database", "error", err)
		}
	}
}
