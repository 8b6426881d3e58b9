package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"contest-tracker/internal/config"
)

// Open waits until the configured database answers and returns a gorm handle on it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	sqlDB, err := sql.Open(driverName(cfg.Driver), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s failed: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// sqlite serializes writers; a single connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
		sqlDB.SetConnMaxIdleTime(30 * time.Minute)
	}

	if err := WaitForReady(ctx, sqlDB, WaitOptions{
		Attempts:    cfg.WaitAttempts,
		Interval:    cfg.WaitInterval(),
		MaxInterval: cfg.WaitMaxInterval(),
	}); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	db, err := gorm.Open(dialector(cfg.Driver, sqlDB), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Warn),
		DisableAutomaticPing: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open gorm %s failed: %w", cfg.Driver, err)
	}

	log.WithField("driver", cfg.Driver).Info("database ready")
	return db, nil
}

func driverName(driver string) string {
	switch driver {
	case config.DriverPostgres:
		return "pgx"
	case config.DriverSQLite:
		return sqlite.DriverName
	default:
		return "mysql"
	}
}

func dialector(driver string, conn *sql.DB) gorm.Dialector {
	switch driver {
	case config.DriverPostgres:
		return postgres.New(postgres.Config{Conn: conn})
	case config.DriverSQLite:
		return &sqlite.Dialector{DriverName: sqlite.DriverName, Conn: conn}
	default:
		return mysql.New(mysql.Config{Conn: conn})
	}
}
