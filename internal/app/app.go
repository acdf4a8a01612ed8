// Package app assembles the process-wide context: configuration, logging,
// the durable store, the remote catalog client and the three stores that UI
// consumers talk to.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/cineshelf/internal/catalog"
	"github.com/patric-chuzhbe/cineshelf/internal/config"
	"github.com/patric-chuzhbe/cineshelf/internal/db/boltdb"
	"github.com/patric-chuzhbe/cineshelf/internal/db/jsondb"
	"github.com/patric-chuzhbe/cineshelf/internal/db/memorystorage"
	"github.com/patric-chuzhbe/cineshelf/internal/db/postgresdb"
	"github.com/patric-chuzhbe/cineshelf/internal/db/sqlitedb"
	"github.com/patric-chuzhbe/cineshelf/internal/db/storage"
	"github.com/patric-chuzhbe/cineshelf/internal/favorites"
	"github.com/patric-chuzhbe/cineshelf/internal/logger"
	"github.com/patric-chuzhbe/cineshelf/internal/models"
	"github.com/patric-chuzhbe/cineshelf/internal/notifier"
	"github.com/patric-chuzhbe/cineshelf/internal/session"
	"github.com/patric-chuzhbe/cineshelf/internal/tmdb"
)

// App owns every long-lived dependency. Consumers reach the stores through
// its exported fields and must call Close on shutdown.
type App struct {
	cfg *config.Config
	db  storage.Storage

	Remote    *tmdb.Client
	Session   *session.Store
	Favorites *favorites.Store
	Catalog   *catalog.Store
}

type initOptions struct {
	configOptions []config.InitOption
	notifier      notifier.Notifier
}

type InitOption func(*initOptions)

// WithConfigOptions is passed through to config.New.
func WithConfigOptions(configOptions ...config.InitOption) InitOption {
	return func(options *initOptions) {
		options.configOptions = append(options.configOptions, configOptions...)
	}
}

// WithNotifier sets where user-facing alerts go. Alerts are logged by default.
func WithNotifier(n notifier.Notifier) InitOption {
	return func(options *initOptions) {
		options.notifier = n
	}
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - restoring the persisted session and its favorites
func New(ctx context.Context, optionsProto ...InitOption) (*App, error) {
	options := &initOptions{
		notifier: notifier.LogNotifier{},
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	var err error
	app := &App{}

	app.cfg, err = config.New(options.configOptions...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(ctx, app.cfg)
	if err != nil {
		return nil, err
	}

	if err := app.db.Ping(ctx); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("storage is unreachable: %w", err)
	}

	app.Remote = tmdb.New(
		app.cfg.TMDBBaseURL,
		app.cfg.TMDBAPIKey,
		app.cfg.TMDBLanguage,
		tmdb.WithTimeout(app.cfg.TMDBTimeout),
	)
	if app.cfg.TMDBAPIKey == "" {
		logger.Log.Warnln("TMDB_API_KEY is empty; remote calls will be rejected")
	}

	app.Session = session.New(
		app.db,
		session.WithNotifier(options.notifier),
		session.WithBcryptCost(app.cfg.BcryptCost),
	)
	app.Session.Load(ctx)

	app.Favorites = favorites.New(ctx, app.db, app.Session)
	app.Catalog = catalog.New(app.Remote)

	logger.Log.Infow(
		"cineshelf initialized",
		"storage", storageTypeName(getAvailableStorageType(app.cfg)),
		"session", app.Session.State().Phase.String(),
	)

	return app, nil
}

// Close detaches the stores, closes the storage and flushes the logger.
func (a *App) Close() error {
	a.Favorites.Close()

	err := a.db.Close()
	if err != nil {
		logger.Log.Errorw("failed to close the storage", zap.Error(err))
	}

	if syncErr := logger.Sync(); syncErr != nil {
		err = errors.Join(err, fmt.Errorf("logger sync: %w", syncErr))
	}

	return err
}

func getAvailableStorageType(cfg *config.Config) int {
	if cfg.DatabaseDSN != "" {
		return models.StorageTypePostgresql
	}

	if cfg.SQLitePath != "" {
		return models.StorageTypeSQLite
	}

	if cfg.BoltPath != "" {
		return models.StorageTypeBolt
	}

	if cfg.DBFileName != "" {
		return models.StorageTypeFile
	}

	return models.StorageTypeMemory
}

func storageTypeName(storageType int) string {
	switch storageType {
	case models.StorageTypePostgresql:
		return "postgres"
	case models.StorageTypeSQLite:
		return "sqlite"
	case models.StorageTypeBolt:
		return "bolt"
	case models.StorageTypeFile:
		return "json"
	case models.StorageTypeMemory:
		return "memory"
	}

	return "unknown"
}

func getStorageByType(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch getAvailableStorageType(cfg) {
	case models.StorageTypeUnknown:
		return nil, errors.New("unknown storage type")

	case models.StorageTypePostgresql:
		return postgresdb.New(ctx, cfg.DatabaseDSN, cfg.DBConnectionTimeout)

	case models.StorageTypeSQLite:
		return sqlitedb.New(ctx, cfg.SQLitePath)

	case models.StorageTypeBolt:
		return boltdb.New(cfg.BoltPath, cfg.DBConnectionTimeout)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)
	}

	return memorystorage.New()
}
