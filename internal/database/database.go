package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"venuebook/internal/domain"
)

// Config holds database connection settings.
type Config struct {
	// DSN is a postgres:// URL, or a SQLite file DSN for local development.
	DSN             string        `mapstructure:"dsn" default:"file:venuebook.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" default:"20"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" default:"30m"`
	// LogLevel is the gorm log level: silent, error, warn, info.
	LogLevel string `mapstructure:"log_level" default:"warn"`
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func Connect(cfg Config, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormLevel(cfg.LogLevel))}

	var (
		db  *gorm.DB
		err error
	)
	if IsPostgresDSN(cfg.DSN) {
		log.Info("connecting to PostgreSQL")
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	} else {
		log.Info("using SQLite", zap.String("dsn", cfg.DSN))
		db, err = gorm.Open(gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        cfg.DSN,
		}), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if IsPostgres(db) {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		// SQLite allows one writer; a single connection serialises access.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func IsPostgres(db *gorm.DB) bool {
	return db.Dialector.Name() == "postgres"
}

// ReadCommitted returns transaction options that make a transaction observe
// every commit made before each statement. SQLite transactions are already
// serialised, so it returns nil there.
func ReadCommitted(db *gorm.DB) *sql.TxOptions {
	if !IsPostgres(db) {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
}

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&domain.Owner{},
		&domain.Venue{},
		&domain.Subscription{},
		&domain.SubscriptionSlot{},
		&domain.OneOffBooking{},
		&domain.UnavailabilityEntry{},
		&domain.RejectedSyncMessage{},
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

func gormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
