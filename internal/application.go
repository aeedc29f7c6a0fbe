package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/gomoku-arena/internal/config"
	"github.com/rocketscienceinc/gomoku-arena/internal/entity"
	"github.com/rocketscienceinc/gomoku-arena/internal/repository"
	"github.com/rocketscienceinc/gomoku-arena/internal/repository/storage"
	"github.com/rocketscienceinc/gomoku-arena/internal/repository/storage/sqlite"
	"github.com/rocketscienceinc/gomoku-arena/internal/service"
	"github.com/rocketscienceinc/gomoku-arena/internal/transport/agent"
	"github.com/rocketscienceinc/gomoku-arena/internal/usecase"
	"github.com/rocketscienceinc/gomoku-arena/transport/rest"
	"github.com/rocketscienceinc/gomoku-arena/transport/websocket"
)

const shutdownTimeout = 15 * time.Second

// RunApp - runs the application until a signal arrives or the HTTP server fails.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	matchRepo, closer, err := newMatchRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			log.Error("could not close archive storage", "error", closeErr)
		}
	}()

	registry := service.NewBotRegistry()
	matchService := service.NewMatchService(matchRepo, conf.Archive.Limit)
	gateway := agent.NewClient(logger, nil)

	// the feed reads from the runner and the runner publishes to the feed
	feed := &runnerFeed{}
	wsServer := websocket.New(logger, feed)

	runner := usecase.NewMatchRunner(logger, usecase.RunnerConfig{
		BoardSize:   conf.Match.BoardSize,
		MoveTimeout: conf.Match.MoveTimeout,
		TurnDelay:   conf.Match.TurnDelay,
	}, gateway, registry, service.NewRandomPicker(), matchService, wsServer)
	feed.runner = runner

	router := rest.NewRouter(logger, runner, registry, matchService, wsServer)
	httpServer := rest.New(logger, conf.HTTPPort, router)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- httpServer.Start()
	}()

	select {
	case err = <-httpErrCh:
		if err != nil {
			log.Error("HTTP server error", "error", err)
		}
	case <-ctx.Done():
		log.Info("Received signal, shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("could not stop HTTP server", "error", shutdownErr)
	}

	wsServer.Close()

	if shutdownErr := runner.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("could not stop match runner", "error", shutdownErr)
	}

	if err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	return nil
}

type runnerFeed struct {
	runner *usecase.MatchRunner
}

func (that *runnerFeed) Snapshot() entity.Snapshot {
	return that.runner.Snapshot()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newMatchRepository(ctx context.Context, conf *config.Config) (repository.MatchRepository, io.Closer, error) {
	switch conf.Archive.Backend {
	case config.BackendRedis:
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr(), conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}
		return repository.NewRedisMatchRepository(redisStorage.Connection, conf.Archive.Limit), redisStorage, nil

	case config.BackendSQLite:
		sqliteStorage, err := sqlite.New(conf.SQLiteStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}
		return repository.NewSQLiteMatchRepository(sqliteStorage.Connection), sqliteStorage, nil

	default:
		return repository.NewMemoryMatchRepository(conf.Archive.Limit), nopCloser{}, nil
	}
}
