package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database variables
var (
	Db   *gorm.DB // GORM database instance
	Path string   // Path to the SQLite file holding the session slots
)

const dbFileName = "rentdesk.db"

func init() {
	if err := ConfigurePathErr(); err != nil {
		log.Warn().Err(err).Msg("Falling back to a relative database path")
		Path = filepath.Join(".rentdesk", dbFileName)
	}
}

// ConfigurePathErr resolves the database path from RENTDESK_HOME, then XDG_DATA_HOME,
// then the user's home directory.
func ConfigurePathErr() error {
	if home := os.Getenv("RENTDESK_HOME"); home != "" {
		Path = filepath.Join(home, dbFileName)
		return nil
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		Path = filepath.Join(xdg, "rentdesk", dbFileName)
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to resolve home directory: %w", err)
	}
	Path = filepath.Join(home, ".rentdesk", dbFileName)
	return nil
}

// DataDir returns the directory that holds the database file.
func DataDir() string {
	return filepath.Dir(Path)
}

// InitDB initializes the database and creates the tables if they don't exist.
func InitDB() error {
	if err := createDBDirectory(); err != nil {
		return err
	}

	if err := openDatabase(); err != nil {
		return err
	}

	if err := migrateTables(); err != nil {
		return err
	}

	configureLogger()

	log.Debug().Str("path", Path).Msg("Database initialized successfully")
	return nil
}

// createDBDirectory creates the directory for the database file if it does not exist.
func createDBDirectory() error {
	dir := filepath.Dir(Path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			log.Error().Err(err).Msg("Failed to create database directory")
			return err
		}
	}
	return nil
}

func openDatabase() error {
	var err error
	Db, err = gorm.Open(sqlite.Open(Path), &gorm.Config{})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize database")
		return err
	}
	return nil
}

func migrateTables() error {
	if err := Db.AutoMigrate(&Slot{}); err != nil {
		log.Error().Err(err).Msg("Failed to auto-migrate database")
		return err
	}
	return nil
}

// configureLogger keeps GORM quiet unless zerolog debug output is enabled.
func configureLogger() {
	if zerolog.GlobalLevel() == zerolog.Disabled {
		Db.Logger = Db.Logger.LogMode(logger.Silent)
	} else {
		Db.Logger = Db.Logger.LogMode(logger.Info)
	}
}

// GetDB returns the global database handle.
func GetDB() *gorm.DB {
	return Db
}

// CloseDB closes the database connection. It is a no-op when the database was never opened.
func CloseDB() error {
	if Db == nil {
		return nil
	}
	sqlDB, err := Db.DB()
	if err != nil {
		log.Error().Err(err).Msg("Failed to get raw database connection")
		return err
	}
	return sqlDB.Close()
}

// Shutdown closes the database and only logs failures. It is safe to call from signal handlers.
func Shutdown() {
	if err := CloseDB(); err != nil {
		log.Error().Err(err).Msg("Failed to close the database during shutdown")
	}
}
