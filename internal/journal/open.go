package journal

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	driverPostgres      = "postgres"
	driverSQLite        = "sqlite"
	defaultDatabaseName = "journal.db"
	sqliteMemoryPath    = ":memory:"
	// sqliteDriverName is the database/sql name registered by modernc.org/sqlite,
	// the same driver lnd links for its own stores.
	sqliteDriverName = "sqlite"
)

// Open connects to the journal database. An empty dsn selects a SQLite file
// named journal.db under dataDir; postgres:// and postgresql:// DSNs use
// PostgreSQL; sqlite:// URLs and bare paths use SQLite.
func Open(ctx context.Context, dsn string, dataDir string) (*gorm.DB, func() error, error) {
	driver, sqlitePath, err := resolveDriver(dsn, dataDir)
	if err != nil {
		return nil, nil, err
	}

	var db *gorm.DB
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	switch driver {
	case driverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case driverSQLite:
		db, err = openSQLite(sqlitePath, cfg)
	default:
		return nil, nil, fmt.Errorf("unsupported database scheme %q", driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s journal: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() error { return sqlDB.Close() }
	return db.WithContext(ctx), cleanup, nil
}

func openSQLite(path string, cfg *gorm.Config) (*gorm.DB, error) {
	sqlDB, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: sqliteDriverName, Conn: sqlDB}), cfg)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func resolveDriver(dsn string, dataDir string) (string, string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		sqlitePath, err := normalizeSQLitePath(filepath.Join(dataDir, defaultDatabaseName))
		return driverSQLite, sqlitePath, err
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, "", nil
	}
	if strings.HasPrefix(dsn, "sqlite://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", "", fmt.Errorf("parse sqlite url: %w", err)
		}
		path := u.Host + u.Path
		if path == "" || path == "/" {
			path = filepath.Join(dataDir, defaultDatabaseName)
		}
		sqlitePath, err := normalizeSQLitePath(path)
		return driverSQLite, sqlitePath, err
	}
	sqlitePath, err := normalizeSQLitePath(dsn)
	return driverSQLite, sqlitePath, err
}

func normalizeSQLitePath(path string) (string, error) {
	if path == sqliteMemoryPath || strings.HasPrefix(path, "file:") {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create journal directory: %w", err)
	}
	return filepath.Clean(path), nil
}
