package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/maratona/internal/account"
	"github.com/robalobadob/maratona/internal/config"
	"github.com/robalobadob/maratona/internal/db"
	"github.com/robalobadob/maratona/internal/history"
	"github.com/robalobadob/maratona/internal/httpserver"
	"github.com/robalobadob/maratona/internal/match"
	"github.com/robalobadob/maratona/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("bye")
}

func run(ctx context.Context, cfg config.Config) error {
	oracle, err := words.New(cfg.WordsDir, cfg.WordSalt, words.ParseLanguage(cfg.DefaultLang, words.Italian))
	if err != nil {
		return fmt.Errorf("load word lists: %w", err)
	}
	log.Info().Interface("words", oracle.Stats()).Msg("word lists loaded")

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB, db.Migrations(cfg.MigrationsDir)); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	hist, closeHist, err := openHistory(ctx, cfg, sqlDB)
	if err != nil {
		return err
	}
	defer closeHist()

	hub := match.NewHub(oracle, match.Options{
		GracePeriod:    cfg.GracePeriod,
		RematchTimeout: cfg.RematchTimeout,
		IdleTimeout:    cfg.RoomIdleTimeout,
		SweepInterval:  cfg.SweepInterval,
		EnforceTurns:   cfg.EnforceTurns,
		StrictWords:    cfg.StrictWords,
		MaxGuesses:     cfg.MaxGuesses,
		History:        hist,
	})
	go hub.Run(ctx)

	srv := httpserver.New(cfg, httpserver.Deps{
		Hub:      hub,
		Words:    oracle,
		Accounts: account.NewStore(sqlDB),
		History:  hist,
	})
	log.Info().Str("port", cfg.Port).Str("history", cfg.DBDriver).Msg("starting maratona server")
	err = srv.Start(ctx, ":"+cfg.Port)
	// http.Server.Shutdown does not close hijacked websockets
	hub.Shutdown()
	hub.Wait()
	return err
}

// openHistory picks the match history backend. Accounts always live in sqlite.
func openHistory(ctx context.Context, cfg config.Config, sqlDB *sql.DB) (history.Store, func(), error) {
	switch cfg.DBDriver {
	case "", "sqlite", "sqlite3":
		return history.NewSQLStore(sqlDB), func() {}, nil
	case "postgres", "postgresql":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DB_DRIVER=%s requires DATABASE_URL", cfg.DBDriver)
		}
		pg, err := history.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return pg, pg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}
