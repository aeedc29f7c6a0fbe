package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type Server struct {
	logger *slog.Logger
	srv    *http.Server
}

// NewRouter wires the arena API. feed serves /ws and may be nil.
func NewRouter(logger *slog.Logger, runner matchRunner, registry botRegistry, matches matchService, feed http.Handler) *mux.Router {
	h := newHandlers(logger, runner, registry, matches)

	router := mux.NewRouter()
	router.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)

	// flat routes: a mux subrouter loses the 405 when a later route matches the method
	router.HandleFunc("/api/game-state", h.GameState).Methods(http.MethodGet)
	router.HandleFunc("/api/game-status", h.GameStatus).Methods(http.MethodGet)
	router.HandleFunc("/api/register-bot", h.RegisterBot).Methods(http.MethodPost)
	router.HandleFunc("/api/unregister-bot", h.UnregisterBot).Methods(http.MethodPost)
	router.HandleFunc("/api/connected-bots", h.ConnectedBots).Methods(http.MethodGet)
	router.HandleFunc("/api/start-game", h.StartGame).Methods(http.MethodPost)
	router.HandleFunc("/api/reset-game", h.ResetGame).Methods(http.MethodPost)
	router.HandleFunc("/api/matches", h.ListMatches).Methods(http.MethodGet)
	router.HandleFunc("/api/matches/{id}", h.GetMatch).Methods(http.MethodGet)

	if feed != nil {
		router.Handle("/ws", feed).Methods(http.MethodGet)
	}

	router.Use(loggingMiddleware(logger))

	return router
}

func New(logger *slog.Logger, port string, handler http.Handler) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      handler,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (that *Server) Start() error {
	that.logger.Info("http server listening", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(started))
		})
	}
}
