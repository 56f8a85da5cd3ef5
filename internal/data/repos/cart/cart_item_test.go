package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/shopfront-backend/internal/data/repos/testutil"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
)

func TestCartItemRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCartItemRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	u := testutil.SeedUser(t, dbc.Ctx, tx, "cartrepo@example.com")
	p1 := testutil.SeedProduct(t, dbc.Ctx, tx, "Cart Repo One", 100000, 10)
	p2 := testutil.SeedProduct(t, dbc.Ctx, tx, "Cart Repo Two", 50000, 10)

	if _, err := repo.SetQuantity(dbc, u.ID, p1.ID, 2); err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	ci, err := repo.SetQuantity(dbc, u.ID, p1.ID, 5)
	if err != nil || ci == nil || ci.Quantity != 5 {
		t.Fatalf("SetQuantity(upsert): ci=%+v err=%v", ci, err)
	}
	if _, err := repo.SetQuantity(dbc, u.ID, p2.ID, 1); err != nil {
		t.Fatalf("SetQuantity p2: %v", err)
	}

	items, err := repo.ListByUser(dbc, u.ID)
	if err != nil || len(items) != 2 {
		t.Fatalf("ListByUser: len=%d err=%v", len(items), err)
	}
	for _, it := range items {
		if it.Product == nil {
			t.Fatalf("ListByUser: product not preloaded for %s", it.ProductID)
		}
	}

	if got, err := repo.Get(dbc, u.ID, uuid.New()); err != nil || got != nil {
		t.Fatalf("Get(missing): got=%+v err=%v", got, err)
	}

	if ok, err := repo.Delete(dbc, u.ID, p2.ID); err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if err := repo.DeleteProducts(dbc, u.ID, []uuid.UUID{p1.ID}); err != nil {
		t.Fatalf("DeleteProducts: %v", err)
	}
	items, _ = repo.ListByUser(dbc, u.ID)
	if len(items) != 0 {
		t.Fatalf("expected empty cart, got %d", len(items))
	}

	_, _ = repo.SetQuantity(dbc, u.ID, p1.ID, 1)
	if err := repo.Clear(dbc, u.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	items, _ = repo.ListByUser(dbc, u.ID)
	if len(items) != 0 {
		t.Fatalf("Clear: %d items left", len(items))
	}
}
