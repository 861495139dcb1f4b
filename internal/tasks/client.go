package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client runs backlite queues out of a SQLite file kept next to the portal
// database, so queue writes never contend with session writes.
type Client struct {
	bl      *backlite.Client
	db      *sql.DB
	workers int
	started atomic.Bool
}

// QueuePath names the queue database for the portal database at mainDBPath:
// "data/docsafe.db" becomes "data/docsafe-tasks.db".
func QueuePath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(mainDBPath, ext) + "-tasks" + ext
}

func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite3", QueuePath(mainDBPath)+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open task queue database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 2)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{log.With().Str("component", "tasks").Logger()},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set up task queue: %w", err)
	}

	return &Client{bl: bl, db: db, workers: cfg.Workers}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.bl.Register(q)
	}
}

// Start runs the workers until ctx ends. Later calls are no-ops.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Info().Int("workers", c.workers).Msg("Task queue started")
	c.bl.Start(ctx)
}

// Stop waits for running tasks until ctx is done and reports whether they
// all finished.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}
	if !c.bl.Stop(ctx) {
		log.Warn().Msg("Task queue stopped before all tasks finished")
		return false
	}
	log.Info().Msg("Task queue stopped")
	return true
}

// Close releases the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Enqueue saves tasks bound to ctx and returns their ids.
func (c *Client) Enqueue(ctx context.Context, tasks ...backlite.Task) ([]string, error) {
	return c.bl.Add(tasks...).Ctx(ctx).Save()
}

// queueLogger routes backlite's logging into zerolog; routine messages go
// to debug.
type queueLogger struct {
	logger zerolog.Logger
}

func (l queueLogger) Info(message string, params ...any) {
	l.logger.Debug().Fields(params).Msg(message)
}

func (l queueLogger) Error(message string, params ...any) {
	l.logger.Error().Fields(params).Msg(message)
}
