package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

type memoryIdempotency struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key], _ = value.(string)
	return true, nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key], _ = value.(string)
	return nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

type testEnv struct {
	cfg     *config.Config
	conn    *gorm.DB
	handler http.Handler
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 5},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := migrate.AutoMigrate(conn); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry := prometheus.NewRegistry()
	client := db.NewFromGorm(conn)
	catalogRepo := catalog.NewRepository(conn)

	svc, err := cart.NewService(cart.NewRepository(conn), client, catalogRepo, cart.Options{
		ConflictRetryBackoff:  time.Millisecond,
		ProcessingOffsetCents: 1,
		Logger:                logg,
		Metrics:               metrics.NewCartMetrics(registry),
	})
	if err != nil {
		t.Fatalf("cart service: %v", err)
	}

	handler := NewRouter(
		cfg,
		logg,
		client,
		nil,
		nil,
		&memoryIdempotency{data: map[string]string{}},
		registry,
		catalogRepo,
		svc,
	)
	return &testEnv{cfg: cfg, conn: conn, handler: handler}
}

func (e *testEnv) seedItem(t *testing.T, name string, priceCents int64) *models.CatalogItem {
	t.Helper()
	now := time.Now().UTC()
	item := &models.CatalogItem{
		ID:             uuid.New(),
		Name:           name,
		UnitPriceCents: priceCents,
		Type:           "print",
		Available:      true,
		ImageURLs:      []string{name + ".jpg"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.conn.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(e.cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token, idemKey, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v (%s)", err, resp.Body.String())
	}
}

type lineBody struct {
	ID         uuid.UUID `json:"id"`
	Quantity   int       `json:"quantity"`
	TotalPrice string    `json:"total_price"`
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		if resp := env.do(t, http.MethodGet, path, "", "", ""); resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, resp.Code)
		}
	}
}

func TestCartRequiresIdentity(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/cart", "", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous cart view got %d", resp.Code)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/cart", "garbage", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token got %d", resp.Code)
	}
}

func TestCatalogListIsPublic(t *testing.T) {
	env := newTestEnv(t)
	env.seedItem(t, "Poster", 1500)

	resp := env.do(t, http.MethodGet, "/api/v1/catalog/items", "", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var items []map[string]any
	decodeData(t, resp, &items)
	if len(items) != 1 || items[0]["unit_price"] != "15.00" {
		t.Fatalf("unexpected catalog payload %v", items)
	}
}

func TestCartFlowConsolidatesAndPrices(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedItem(t, "Canvas", 1999)
	token := env.token(t, uuid.New())
	body := `{"item_id":"` + item.ID.String() + `"}`

	var line lineBody
	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/v1/cart/lines", token, fmt.Sprintf("add-%d", i), body)
		if resp.Code != http.StatusCreated {
			t.Fatalf("add %d: expected 201 got %d (%s)", i, resp.Code, resp.Body.String())
		}
		decodeData(t, resp, &line)
	}
	if line.Quantity != 3 || line.TotalPrice != "59.97" {
		t.Fatalf("unexpected consolidated line %+v", line)
	}

	resp := env.do(t, http.MethodGet, "/api/v1/cart/checkout", token, "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("checkout: expected 200 got %d", resp.Code)
	}
	var summary struct {
		Amount    string `json:"amount"`
		ItemCount int    `json:"item_count"`
	}
	decodeData(t, resp, &summary)
	if summary.Amount != "59.96" || summary.ItemCount != 3 {
		t.Fatalf("unexpected checkout %+v", summary)
	}

	resp = env.do(t, http.MethodPost, "/api/v1/cart/lines/"+line.ID.String()+"/reduce", token, "reduce-1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("reduce: expected 200 got %d (%s)", resp.Code, resp.Body.String())
	}
	decodeData(t, resp, &line)
	if line.Quantity != 2 || line.TotalPrice != "39.98" {
		t.Fatalf("unexpected reduced line %+v", line)
	}

	resp = env.do(t, http.MethodDelete, "/api/v1/cart/lines/"+line.ID.String(), token, "remove-1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("remove: expected 200 got %d", resp.Code)
	}

	resp = env.do(t, http.MethodGet, "/api/v1/cart", token, "", "")
	var view struct {
		Lines     []lineBody `json:"lines"`
		ItemCount int        `json:"item_count"`
		TotalDue  string     `json:"total_due"`
	}
	decodeData(t, resp, &view)
	if len(view.Lines) != 0 || view.ItemCount != 0 || view.TotalDue != "0.00" {
		t.Fatalf("expected empty cart after remove, got %+v", view)
	}
}

func TestAddReplayDoesNotDoubleCount(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedItem(t, "Print", 1000)
	token := env.token(t, uuid.New())
	body := `{"item_id":"` + item.ID.String() + `"}`

	first := env.do(t, http.MethodPost, "/api/v1/cart/lines", token, "same-key", body)
	replay := env.do(t, http.MethodPost, "/api/v1/cart/lines", token, "same-key", body)
	if first.Code != http.StatusCreated || replay.Code != http.StatusCreated {
		t.Fatalf("unexpected statuses %d/%d", first.Code, replay.Code)
	}

	var line lineBody
	decodeData(t, replay, &line)
	if line.Quantity != 1 {
		t.Fatalf("replayed add must not increment, got quantity %d", line.Quantity)
	}
}

func TestRemoveOtherUsersLineIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedItem(t, "Frame", 2500)
	owner := env.token(t, uuid.New())
	intruder := env.token(t, uuid.New())

	resp := env.do(t, http.MethodPost, "/api/v1/cart/lines", owner, "k1", `{"item_id":"`+item.ID.String()+`"}`)
	var line lineBody
	decodeData(t, resp, &line)

	resp = env.do(t, http.MethodDelete, "/api/v1/cart/lines/"+line.ID.String(), intruder, "k2", "")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAddUnknownItemNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New())

	resp := env.do(t, http.MethodPost, "/api/v1/cart/lines", token, "k1", `{"item_id":"`+uuid.NewString()+`"}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
