package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"cardocs/internal/config"
	"cardocs/internal/database"
	"cardocs/internal/expiry"
	"cardocs/internal/logging"
)

// runtime is what every command needs before it does anything useful.
type runtime struct {
	cfg    *config.AppConfig
	loc    *time.Location
	logger *logrus.Logger
	db     *sql.DB
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, loc)

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &runtime{cfg: cfg, loc: loc, logger: logger, db: db}, nil
}

func (r *runtime) Close() error {
	return r.db.Close()
}

func (r *runtime) classifier() *expiry.Classifier {
	c := expiry.New()
	c.WindowDays = r.cfg.Expiry.WindowDays
	c.TodayIsExpiring = r.cfg.Expiry.TodayIsExpiring
	c.Location = r.loc
	return c
}
