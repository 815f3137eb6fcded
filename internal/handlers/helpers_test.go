package handlers_test

import (
	"BiomassLedger/internal/config"
	"BiomassLedger/internal/document"
	"BiomassLedger/internal/handlers"
	"BiomassLedger/internal/middleware"
	"BiomassLedger/internal/model"
	"BiomassLedger/internal/notify"
	"BiomassLedger/internal/repo"
	"BiomassLedger/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const (
	testSecret  = "test-secret"
	adminSecret = "admin-code"
	adminEmail  = "admin@example.com"
)

// мок для notify.Notifier
type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Send(ctx context.Context, msg notify.Message) error {
	return m.Called(ctx, msg).Error(0)
}

var _ notify.Notifier = (*mockNotifier)(nil)

type testServer struct {
	router   http.Handler
	approval *service.ApprovalService
	catalog  *service.CatalogService
	notifier *mockNotifier
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dial := gormsqlite.Dialector{DriverName: "sqlite", DSN: fmt.Sprintf("file:h_%s?mode=memory&cache=shared", name)}
	db, err := gorm.Open(dial, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repo.Migrate(db))
	return db
}

// newTestServer собирает сервер на отдельной базе; opts меняют конфигурацию.
func newTestServer(t *testing.T, opts ...func(*config.Config)) *testServer {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{
		AuthSecret:     testSecret,
		AdminEmail:     adminEmail,
		AdminSecrets:   []string{adminSecret},
		NotifyTimeout:  time.Second,
		SignatureMaxKB: 64,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := zap.NewNop().Sugar()
	middleware.SetLogger(log)

	n := new(mockNotifier)
	n.On("Send", mock.Anything, mock.Anything).Return(nil)

	artifacts := repo.NewArtifactRepository(db)
	approval := service.NewApprovalService(repo.NewIdentityRepository(db), n, log, cfg)
	catalog := service.NewCatalogService(repo.NewCustomerRepository(db), repo.NewMaterialRepository(db), log)
	ledger := service.NewLedgerService(repo.NewLedgerRepository(db), artifacts, log)
	delivery := service.NewDeliveryService(catalog, ledger, document.NewGenerator(), n, log, cfg)

	h := handlers.NewHandler(approval, catalog, ledger, delivery, log, cfg)
	return &testServer{router: h.Router, approval: approval, catalog: catalog, notifier: n}
}

// do выполняет запрос; cookies: токен вызывающего (может быть nil).
func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) doJSON(t *testing.T, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return s.do(t, method, path, r, "application/json", cookies)
}

func authCookie(t *testing.T, identity *model.Identity) []*http.Cookie {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, middleware.SetLoginCookie(rr, identity, testSecret, false))
	return rr.Result().Cookies()
}

func (s *testServer) adminCookie(t *testing.T) []*http.Cookie {
	return authCookie(t, model.AdminIdentity(adminEmail))
}

// supplierCookie регистрирует, одобряет и логинит поставщика через сервис.
func (s *testServer) supplierCookie(t *testing.T, email string) (*model.Identity, []*http.Cookie) {
	t.Helper()
	ctx := context.Background()
	_, err := s.approval.Register(ctx, email, "pw")
	require.NoError(t, err)
	require.NoError(t, s.approval.Approve(ctx, email))
	identity, err := s.approval.Authenticate(ctx, email, "pw")
	require.NoError(t, err)
	return identity, authCookie(t, identity)
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v))
	return v
}

func signaturePNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 24, 12))
	for x := 0; x < 24; x++ {
		img.SetGray(x, x/2, color.Gray{Y: shade})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
