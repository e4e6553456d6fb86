package patientstore

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store wraps a gorm.DB handle with the patient record operations the
// ingestion pipeline and the listing service need. The handle holds a
// connection pool and is safe for concurrent use; it is constructed once
// at startup and injected into every consumer.
type Store struct {
	db  *gorm.DB
	cfg Config
}

// NewStore connects to postgres and returns a ready Store.
//
// Returns the *Store concrete type (accept interfaces, return structs);
// consumers bind it to their own narrow interfaces.
func NewStore(cfg Config) (*Store, error) {
	db, err := connectToPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("error in connecting to postgres: %w", err)
	}

	return &Store{db: db, cfg: cfg}, nil
}

// connectToPostgres establishes the GORM connection and configures the
// connection pool.
func connectToPostgres(cfg Config) (*gorm.DB, error) {
	pgConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Connection.Host,
		cfg.Connection.Port,
		cfg.Connection.User,
		cfg.Connection.Password,
		cfg.Connection.DbName,
		cfg.Connection.SSLMode)

	database, err := gorm.Open(
		postgres.Open(pgConnStr),
		&gorm.Config{
			TranslateError: true,
			Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgresSQL database: %w", err)
	}

	databaseInstance, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get PostgresSQL database instance: %w", err)
	}

	// If config fields are not set (zero), apply package defaults.
	maxOpen := cfg.ConnectionDetails.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 50
	}
	maxIdle := cfg.ConnectionDetails.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 25
	}
	maxLifetime := cfg.ConnectionDetails.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 1 * time.Minute
	}

	databaseInstance.SetMaxOpenConns(maxOpen)
	databaseInstance.SetMaxIdleConns(maxIdle)
	databaseInstance.SetConnMaxLifetime(maxLifetime)

	return database, nil
}

// Migrate brings the patient_records schema up to date.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&PatientRecord{})
}

// GracefulShutdown closes the underlying connection pool.
func (s *Store) GracefulShutdown() error {
	databaseInstance, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return databaseInstance.Close()
}
