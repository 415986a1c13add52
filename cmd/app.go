package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/koopa0/canvas/internal/config"
	"github.com/koopa0/canvas/internal/detect"
	"github.com/koopa0/canvas/internal/engine"
	"github.com/koopa0/canvas/internal/index"
	"github.com/koopa0/canvas/internal/log"
	"github.com/koopa0/canvas/internal/similarity"
	"github.com/koopa0/canvas/internal/store/memstore"
	"github.com/koopa0/canvas/internal/store/pgstore"
	"github.com/koopa0/canvas/internal/store/sqlitestore"
)

// app holds the wired components the commands operate through.
type app struct {
	cfg         *config.Config
	logger      log.Logger
	detector    *detect.Detector
	grouper     *detect.Grouper
	coordinator *engine.Coordinator
	index       *index.Index
	closer      io.Closer
}

// newApp builds the component graph for the configured backend.
func newApp(cfg *config.Config, logger log.Logger) (*app, error) {
	store, closer, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	detector := detect.New(detect.Config{
		MinContentSize:      cfg.MinContentSize,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
	}, nil, logger.With("component", "detect"))

	scorer := similarity.New(cfg.MaxCompareLength)
	grouper := detect.NewGrouper(detect.GroupConfig{
		MaxPerMessage:       cfg.MaxArtifactsPerMessage,
		SimilarityThreshold: cfg.SimilarityThreshold,
		DuplicateMinLength:  cfg.DuplicateMinLength,
	}, scorer, logger.With("component", "group"))

	coordinator, err := engine.New(store, engine.Config{
		MinContentSize: cfg.MinContentSize,
	}, logger.With("component", "engine"))
	if err != nil {
		closeQuietly(closer, logger)
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}

	idx, err := index.New(cfg.IndexCacheSize, logger.With("component", "index"))
	if err != nil {
		closeQuietly(closer, logger)
		return nil, fmt.Errorf("creating message index: %w", err)
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		detector:    detector,
		grouper:     grouper,
		coordinator: coordinator,
		index:       idx,
		closer:      closer,
	}, nil
}

// Close releases the storage backend.
func (a *app) Close() {
	closeQuietly(a.closer, a.logger)
}

// openStore selects and opens the storage backend. The memory backend
// needs no teardown; the returned closer may be nil.
func openStore(cfg *config.Config, logger log.Logger) (engine.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memstore.New(), nil, nil

	case config.BackendSQLite:
		s, err := sqlitestore.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s, nil

	case config.BackendPostgres:
		s, err := pgstore.Open(context.Background(), cfg.DatabaseURL, logger.With("component", "pgstore"))
		if err != nil {
			return nil, nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return s, closerFunc(func() error { s.Close(); return nil }), nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, cfg.Backend)
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func closeQuietly(c io.Closer, logger log.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close store", "error", err)
	}
}
