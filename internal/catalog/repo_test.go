package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec(`CREATE TABLE catalog_items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL,
		unit_price_cents INTEGER NOT NULL,
		type TEXT NOT NULL,
		available BOOLEAN NOT NULL,
		image_urls TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}
	return conn
}

func seed(t *testing.T, conn *gorm.DB, name string, available bool) *models.CatalogItem {
	t.Helper()
	now := time.Now().UTC()
	item := &models.CatalogItem{
		ID:             uuid.New(),
		Name:           name,
		Description:    "desc",
		UnitPriceCents: 1999,
		Type:           "print",
		Available:      available,
		ImageURLs:      []string{"1.jpg", "2.jpg", "3.jpg"},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return item
}

func TestGetItem(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	item := seed(t, conn, "poster", true)

	got, err := repo.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Name != "poster" || got.UnitPriceCents != 1999 || len(got.ImageURLs) != 3 {
		t.Fatalf("unexpected item %+v", got)
	}
}

func TestGetItemNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	if _, err := repo.GetItem(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetItem(context.Background(), uuid.Nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for nil id, got %v", err)
	}
}

func TestListAvailableOnly(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	seed(t, conn, "b-lamp", true)
	seed(t, conn, "a-chair", true)
	seed(t, conn, "c-gone", false)

	all, err := repo.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Name != "a-chair" {
		t.Fatalf("expected 3 items ordered by name, got %+v", all)
	}

	available, err := repo.List(context.Background(), true)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 available items, got %d", len(available))
	}
}
