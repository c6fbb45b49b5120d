// Package runstore persists the per-gamma outcome of an LLP run (cost,
// pass count, duration, labels key) to a relational database, so a run can
// be inspected or compared after the fact. It is optional: the core
// algorithm in internal/llp never depends on it; the CLI's run command
// records rows from the orchestrator's results after llp.Orchestrator.Run
// returns, and skips recording when no Store could be opened.
package runstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/llp-go/llp/pkg/config"
	"github.com/llp-go/llp/pkg/telemetry"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// DBType represents the supported run-history database backends.
type DBType string

const (
	DBTypeSQLite   DBType = "sqlite"
	DBTypePostgres DBType = "postgres"
	DBTypeMySQL    DBType = "mysql"
)

// GammaRun is the row recorded for every gamma evaluated by a run, plus one
// extra row (IsFinal=true) for the combined result. A bool flag is used
// instead of a NaN sentinel for "this row is the combined result" (as a
// Gamma value of NaN would) because NaN does not round-trip identically
// through sqlite, postgres, and mysql drivers alike.
type GammaRun struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	RunID         string    `gorm:"column:run_id;type:varchar(64);index"`
	GammaIndex    int       `gorm:"column:gamma_index"`
	Gamma         float64   `gorm:"column:gamma"`
	Cost          float64   `gorm:"column:cost"`
	Passes        int       `gorm:"column:passes"`
	TotalModified int64     `gorm:"column:total_modified"`
	DurationNanos int64     `gorm:"column:duration_nanos"`
	LabelsKey     string    `gorm:"column:labels_key;type:varchar(256)"`
	IsFinal       bool      `gorm:"column:is_final"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the table name for GammaRun.
func (GammaRun) TableName() string {
	return "gamma_run"
}

// Store is the persistence contract the CLI's run command reports per-gamma
// results to.
type Store interface {
	RecordGammaRun(ctx context.Context, run *GammaRun) error
	ListRuns(ctx context.Context, runID string) ([]GammaRun, error)
	BestRun(ctx context.Context, runID string) (*GammaRun, error)
	Close() error
}

// GormStore implements Store on top of GORM, following the same
// dial-by-type, connection-pool, and optional-tracing pattern the rest of
// this codebase uses for its database connections.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore dials a database per cfg.Type and migrates the GammaRun
// table.
func NewGormStore(cfg *config.RunStoreConfig) (*GormStore, error) {
	var dialector gorm.Dialector

	switch DBType(cfg.Type) {
	case DBTypeSQLite, "":
		path := cfg.Database
		if path == "" {
			path = "llp_runs.db"
		}
		dialector = sqlite.Open(path)
	case DBTypePostgres:
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
		dialector = postgres.Open(dsn)
	case DBTypeMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("runstore: unsupported database type: %s", cfg.Type)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("runstore: opening database: %w", err)
	}

	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("runstore: enabling telemetry plugin: %w", err)
		}
	}

	if DBType(cfg.Type) != DBTypeSQLite && cfg.Type != "" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("runstore: getting underlying sql.DB: %w", err)
		}
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 10
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("runstore: pinging database: %w", err)
		}
	}

	if err := db.AutoMigrate(&GammaRun{}); err != nil {
		return nil, fmt.Errorf("runstore: migrating schema: %w", err)
	}

	return &GormStore{db: db}, nil
}

// RecordGammaRun inserts a row for one gamma's (or the combined result's)
// outcome.
func (s *GormStore) RecordGammaRun(ctx context.Context, run *GammaRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("runstore: recording gamma run: %w", err)
	}
	return nil
}

// ListRuns returns every row recorded for runID, ordered by gamma index.
func (s *GormStore) ListRuns(ctx context.Context, runID string) ([]GammaRun, error) {
	var runs []GammaRun
	if err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("gamma_index asc").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("runstore: listing runs: %w", err)
	}
	return runs, nil
}

// BestRun returns the non-final row with the lowest cost for runID.
func (s *GormStore) BestRun(ctx context.Context, runID string) (*GammaRun, error) {
	var run GammaRun
	err := s.db.WithContext(ctx).
		Where("run_id = ? AND is_final = ?", runID, false).
		Order("cost asc").
		First(&run).Error
	if err != nil {
		return nil, fmt.Errorf("runstore: finding best run: %w", err)
	}
	return &run, nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying sql.DB connection, for health checks.
func (s *GormStore) DB() (*sql.DB, error) {
	return s.db.DB()
}
