package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-service/auth"
	"github.com/jrsteele09/go-session-service/internal/config"
	"github.com/jrsteele09/go-session-service/pin"
	"github.com/jrsteele09/go-session-service/principals"
	"github.com/jrsteele09/go-session-service/server"
	"github.com/jrsteele09/go-session-service/sessions"
	"github.com/jrsteele09/go-session-service/storage/postgres"
	storageredis "github.com/jrsteele09/go-session-service/storage/redis"
	"github.com/jrsteele09/go-session-service/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()

	c := config.New()
	logger := newLogger(c)
	displayAppname(c.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	principalRepo, sessionRepo, pinRepo, closeStorage, err := buildStorage(ctx, c, logger)
	if err != nil {
		return fmt.Errorf("buildStorage: %w", err)
	}
	defer closeStorage()

	issuer := token.New(
		token.NewHMACSigner(c.GetAccessTokenSecret()),
		token.NewHMACSigner(c.GetRefreshTokenSecret()),
		token.WithIssuer(c.GetIssuer()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)

	manager, err := auth.NewSessionManager(
		auth.Repos{Principals: principalRepo},
		sessions.NewStore(sessionRepo),
		issuer,
		auth.WithBcryptCost(c.GetBcryptCost()),
		auth.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("auth.NewSessionManager: %w", err)
	}

	pinGuard, err := pin.NewGuard(pinRepo,
		pin.WithLogger(logger),
		pin.WithLockoutHook(server.ObservePINLockout),
	)
	if err != nil {
		return fmt.Errorf("pin.NewGuard: %w", err)
	}

	handler, err := server.New(c, manager, pinGuard, logger)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// buildStorage selects the persistence backend from STORAGE_BACKEND.
// "memory" keeps everything in process, "postgres" backs all three repos,
// "redis" backs sessions with redis and the rest with postgres.
func buildStorage(ctx context.Context, c config.Config, logger zerolog.Logger) (
	principals.Repo, sessions.Repo, pin.Repo, func(), error,
) {
	backend := strings.ToLower(c.GetStorageBackend())
	switch backend {
	case "memory":
		return principals.NewInMemoryRepo(), sessions.NewInMemoryRepo(), pin.NewInMemoryRepo(), func() {}, nil

	case "postgres", "redis":
		pool, err := postgres.Connect(ctx, c.GetPostgresDSN())
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("postgres.Connect: %w", err)
		}
		if err := postgres.RunMigrations(ctx, c.GetPostgresDSN()); err != nil {
			pool.Close()
			return nil, nil, nil, nil, fmt.Errorf("postgres.RunMigrations: %w", err)
		}

		var sessionRepo sessions.Repo = postgres.NewSessionRepo(pool)
		closeStorage := func() { pool.Close() }

		if backend == "redis" {
			client, err := storageredis.Connect(ctx, c.GetRedisAddr(), c.GetRedisPassword())
			if err != nil {
				pool.Close()
				return nil, nil, nil, nil, fmt.Errorf("redis.Connect: %w", err)
			}
			sessionRepo = storageredis.NewSessionRepo(client, c.GetRefreshTokenExpiry())
			closeStorage = func() {
				_ = client.Close()
				pool.Close()
			}
		}

		logger.Info().Str("backend", backend).Msg("storage ready")
		return postgres.NewPrincipalRepo(pool), sessionRepo, postgres.NewPinRepo(pool), closeStorage, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
