// Package storage persists icon renditions in SQLite so a restarted
// process serves icons without re-fetching them from the provider.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vantage/internal/domain"
	"vantage/internal/logging"
	"vantage/internal/ports"
)

// SQLiteIconCache implements ports.IconCache using GORM
type SQLiteIconCache struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.IconCache = (*SQLiteIconCache)(nil)

// gormLogger wraps the vantage logger for GORM
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv("VANTAGE_DEBUG") == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteIconCache opens (or creates) the cache database with WAL
// mode enabled.
func NewSQLiteIconCache(dbPath string) (*SQLiteIconCache, error) {
	// Expand home directory if present
	if len(dbPath) > 0 && dbPath[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, dbPath[1:])
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for concurrent access
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")

	if err := db.AutoMigrate(&IconModel{}); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("failed to migrate icon schema: %w", err)
		}
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	return &SQLiteIconCache{db: db}, nil
}

// GetIcon implements ports.IconCache.GetIcon. A miss is (ok=false),
// not an error.
func (c *SQLiteIconCache) GetIcon(ctx context.Context, path string, size int) (string, bool, error) {
	var model IconModel
	err := withRetry(func() error {
		return c.db.WithContext(ctx).
			Where("path = ? AND size = ?", domain.NormalizePath(path), size).
			First(&model).Error
	}, 3)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached icon: %w", err)
	}
	return model.DataURL, true, nil
}

// PutIcon implements ports.IconCache.PutIcon as an upsert.
func (c *SQLiteIconCache) PutIcon(ctx context.Context, path string, size int, dataURL string) error {
	return withRetry(func() error {
		return c.db.WithContext(ctx).Save(&IconModel{
			Path:    domain.NormalizePath(path),
			Size:    size,
			DataURL: dataURL,
		}).Error
	}, 3)
}

// Forget drops every cached rendition for a path, e.g. after the file
// changed on disk.
func (c *SQLiteIconCache) Forget(ctx context.Context, path string) error {
	return withRetry(func() error {
		return c.db.WithContext(ctx).
			Where("path = ?", domain.NormalizePath(path)).
			Delete(&IconModel{}).Error
	}, 3)
}

// Prune evicts the least recently written entries so at most
// maxEntries remain. Called at startup.
func (c *SQLiteIconCache) Prune(ctx context.Context, maxEntries int) error {
	if maxEntries <= 0 {
		return nil
	}
	return withRetry(func() error {
		return c.db.WithContext(ctx).Exec(`
			DELETE FROM icons WHERE (path, size) NOT IN (
				SELECT path, size FROM icons ORDER BY updated_at DESC LIMIT ?
			)
		`, maxEntries).Error
	}, 3)
}

// Close closes the database connection
func (c *SQLiteIconCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// withRetry retries operations on SQLITE_BUSY with exponential backoff
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
