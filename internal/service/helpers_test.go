package service

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/notify"
	"BiomassLedger/internal/repo"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// мок для notify.Notifier
type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

var _ notify.Notifier = (*mockNotifier)(nil)

// sentTo сообщения, отправленные на адрес
func (m *mockNotifier) sentTo(to string) []notify.Message {
	var out []notify.Message
	for _, c := range m.Calls {
		if c.Method != "Send" {
			continue
		}
		if msg, ok := c.Arguments.Get(1).(notify.Message); ok && msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		AdminEmail:     "admin@example.com",
		ServerURL:      "https://lieferschein.example.com",
		AdminSecrets:   []string{"old-code", "new-code"},
		NotifyTimeout:  time.Second,
		SignatureMaxKB: 64,
	}
}

// newTestDB in-memory SQLite со схемой; у каждого теста своя база.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite (modernc): %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("failed to automigrate: %v", err)
	}
	return db
}
