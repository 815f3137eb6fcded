package repo

import (
	"BiomassLedger/internal/model"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// sqliteBusyTimeoutMs сколько писатель ждёт блокировку файла БД.
const sqliteBusyTimeoutMs = 5000

// InitDB открывает хранилище по DSN и применяет миграции.
// DSN вида postgres://... уходит в Postgres, всё остальное считается путём к файлу SQLite.
func InitDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database dsn")
	}

	var dial gorm.Dialector
	pg := IsPostgresDSN(dsn)
	if pg {
		dial = postgres.Open(dsn)
	} else {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}
	}

	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if !pg {
		// SQLite: один писатель за раз
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт/обновляет схему всех моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Identity{},
		&model.Customer{},
		&model.Material{},
		&model.DeliveryRecord{},
		&model.Artifact{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// IsPostgresDSN сообщает, что DSN адресует Postgres.
func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// sqliteDSN добавляет pragma busy_timeout, если её не задали явно.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, sqliteBusyTimeoutMs)
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || strings.Contains(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return nil
}
