package database

import (
	"errors"
	"fmt"
	"time"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yourusername/quiz-master/internal/config"
	"github.com/yourusername/quiz-master/internal/logger"
)

// NewPostgresDB создает новое подключение к PostgreSQL.
// TranslateError включен, чтобы нарушения уникальности приходили как gorm.ErrDuplicatedKey.
func NewPostgresDB(cfg config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(gormPostgres.Open(cfg.URL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	return db, nil
}

// newMigrator собирает экземпляр migrate поверх существующего подключения
func newMigrator(db *gorm.DB, migrationsPath string) (*migrateV4.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("не удалось получить *sql.DB из *gorm.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось проверить подключение к БД перед миграцией: %w", err)
	}

	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать драйвер postgres для migrate: %w", err)
	}

	m, err := migrateV4.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}
	return m, nil
}

// MigrateDB применяет SQL-миграции из migrationsPath (например, "file://migrations").
// Отсутствие новых миграций не считается ошибкой.
func MigrateDB(db *gorm.DB, migrationsPath string, log *logger.Logger) error {
	log.Info("Applying database migrations", "path", migrationsPath)

	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Info("No new migrations, schema is up to date")
	case err != nil:
		return fmt.Errorf("ошибка применения миграций 'up': %w", err)
	default:
		log.Info("Migrations applied")
	}
	return nil
}

// ForceMigrationVersion снимает флаг dirty, выставляя версию вручную.
// Используется cmd/init-db после неудачной миграции.
func ForceMigrationVersion(db *gorm.DB, migrationsPath string, version int, log *logger.Logger) error {
	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrateV4.ErrNilVersion) {
		return fmt.Errorf("не удалось получить версию миграций: %w", err)
	}
	log.Warn("Forcing migration version", "current", current, "dirty", dirty, "target", version)

	if err := m.Force(version); err != nil {
		return fmt.Errorf("не удалось принудительно установить версию %d: %w", version, err)
	}
	return nil
}
