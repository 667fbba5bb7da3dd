// Package wire provides dependency injection for the warden
// application. It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"log"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/example/warden/internal/adapters/sqlite"
	"github.com/example/warden/internal/app"
	"github.com/example/warden/internal/config"
	"github.com/example/warden/internal/db"
	"github.com/example/warden/internal/ports/primary"
)

var (
	configPath string

	cfg            *config.Config
	database       *sql.DB
	logger         *zap.Logger
	controlService primary.ControlService
	titleService   primary.TitleService
	banService     primary.BanService
	importService  primary.ImportService
	once           sync.Once
)

// SetConfigPath sets the config file to load. Must be called before
// the first service accessor; empty means defaults + environment.
func SetConfigPath(path string) {
	configPath = path
}

// Cfg returns the loaded configuration.
func Cfg() *config.Config {
	once.Do(initServices)
	return cfg
}

// Logger returns the shared zap logger.
func Logger() *zap.Logger {
	once.Do(initServices)
	return logger
}

// ControlService returns the singleton ControlService instance.
func ControlService() primary.ControlService {
	once.Do(initServices)
	return controlService
}

// TitleService returns the singleton TitleService instance.
func TitleService() primary.TitleService {
	once.Do(initServices)
	return titleService
}

// BanService returns the singleton BanService instance.
func BanService() primary.BanService {
	once.Do(initServices)
	return banService
}

// ImportService returns the singleton ImportService instance.
func ImportService() primary.ImportService {
	once.Do(initServices)
	return importService
}

// Close flushes the logger and closes the database.
func Close() {
	if logger != nil {
		_ = logger.Sync()
	}
	if database != nil {
		_ = database.Close()
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err = buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	database, err = db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	// Create repository adapters (secondary ports)
	controlRepo := sqlite.NewControlRepository(database)
	titleRepo := sqlite.NewTitleRequestRepository(database)
	banRepo := sqlite.NewBanRepository(database)
	ingestRepo := sqlite.NewIngestRepository(database)

	// Create services (primary ports implementation)
	controlService = app.NewControlService(controlRepo, cfg.Agent.StalenessWindow, logger)
	titleService = app.NewTitleService(titleRepo, banRepo, controlRepo, cfg.Titles.RecycleAfter, cfg.Titles.NotifyOnBanSkip, logger)
	banService = app.NewBanService(banRepo, controlRepo, logger)
	importService = app.NewImportService(ingestRepo, cfg.DefaultKingdom, logger)
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
