package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/shopfront-backend/internal/data/repos/testutil"
	types "github.com/yungbote/shopfront-backend/internal/domain"
	"github.com/yungbote/shopfront-backend/internal/pkg/dbctx"
)

func TestBannerRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewBannerRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	now := time.Now().UTC()
	past := now.Add(-48 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	second := &types.Banner{Title: "second", Position: 2, IsActive: true}
	first := &types.Banner{Title: "first", Position: 1, IsActive: true, StartsAt: &yesterday, EndsAt: &tomorrow}
	expired := &types.Banner{Title: "expired", Position: 0, IsActive: true, StartsAt: &past, EndsAt: &yesterday}
	future := &types.Banner{Title: "future", Position: 0, IsActive: true, StartsAt: &tomorrow}
	off := &types.Banner{Title: "off", Position: 0, IsActive: false}

	if _, err := repo.Create(dbc, []*types.Banner{second, first, expired, future, off}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	visible, err := repo.ListVisible(dbc, now)
	if err != nil {
		t.Fatalf("ListVisible: %v", err)
	}
	if len(visible) != 2 || visible[0].ID != first.ID || visible[1].ID != second.ID {
		t.Fatalf("ListVisible: unexpected %+v", visible)
	}

	all, err := repo.ListAll(dbc)
	if err != nil || len(all) != 5 {
		t.Fatalf("ListAll: len=%d err=%v", len(all), err)
	}

	if err := repo.UpdateFields(dbc, off.ID, map[string]any{"is_active": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	visible, _ = repo.ListVisible(dbc, now)
	if len(visible) != 3 || visible[0].ID != off.ID {
		t.Fatalf("ListVisible after activate: %+v", visible)
	}

	if ok, err := repo.SoftDelete(dbc, off.ID); err != nil || !ok {
		t.Fatalf("SoftDelete: ok=%v err=%v", ok, err)
	}
	if b, _ := repo.GetByID(dbc, off.ID); b != nil {
		t.Fatalf("SoftDelete: banner still visible")
	}
}
