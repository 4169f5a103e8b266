package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-deck/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-deck/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{Path: database.MemoryPath})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func TestCreate_FillsDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	slot := 4
	e := &Entry{
		Kind:    KindHandler,
		Subject: "mute",
		Slot:    &slot,
		Source:  SourceDevice,
		Detail:  map[string]any{"event": "press"},
	}
	if err := repo.Create(ctx, e); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !strings.HasPrefix(e.ID, "aud-") || len(e.ID) != 12 {
		t.Errorf("ID = %q, want aud-xxxxxxxx", e.ID)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	res, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 || len(res.Entries) != 1 {
		t.Fatalf("List() total = %d, entries = %d", res.Total, len(res.Entries))
	}
	got := res.Entries[0]
	if got.ID != e.ID || got.Kind != KindHandler || got.Subject != "mute" || got.Source != SourceDevice {
		t.Errorf("entry = %+v", got)
	}
	if got.Slot == nil || *got.Slot != 4 {
		t.Errorf("Slot = %v, want 4", got.Slot)
	}
	if got.Detail["event"] != "press" {
		t.Errorf("Detail = %v", got.Detail)
	}
	if !got.CreatedAt.Equal(e.CreatedAt.Truncate(time.Microsecond)) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}
}

func TestCreate_RejectsUnknownKind(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.Create(context.Background(), &Entry{Kind: "bogus", Subject: "x", Source: SourceAPI})
	if err == nil {
		t.Error("Create() error = nil, want CHECK constraint failure")
	}
}

func TestList_OrderFilterAndPaging(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Kind: KindPageLoad, Subject: "page0", Source: SourceInit},
		{Kind: KindWindow, Subject: "Firefox", Source: SourceWindow},
		{Kind: KindPageLoad, Subject: "browser", Source: SourceWindow},
		{Kind: KindPageUnload, Subject: "browser", Source: SourceWindow},
		{Kind: KindPageLoad, Subject: "media", Source: SourceAPI},
	}
	for i := range seed {
		seed[i].CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 5 || all.Entries[0].Subject != "media" || all.Entries[4].Subject != "page0" {
		t.Errorf("List() order = %+v", all.Entries)
	}
	if all.Limit != defaultLimit {
		t.Errorf("Limit = %d, want %d", all.Limit, defaultLimit)
	}

	loads, err := repo.List(ctx, Filter{Kind: KindPageLoad})
	if err != nil {
		t.Fatalf("List(kind) error = %v", err)
	}
	if loads.Total != 3 {
		t.Errorf("page_load total = %d, want 3", loads.Total)
	}

	browser, err := repo.List(ctx, Filter{Subject: "browser", Kind: KindPageUnload})
	if err != nil {
		t.Fatalf("List(subject) error = %v", err)
	}
	if browser.Total != 1 || browser.Entries[0].Kind != KindPageUnload {
		t.Errorf("browser unloads = %+v", browser.Entries)
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List(page) error = %v", err)
	}
	if len(page.Entries) != 2 || page.Entries[0].Subject != "browser" || page.Total != 5 {
		t.Errorf("paged entries = %+v", page.Entries)
	}

	clamped, err := repo.List(ctx, Filter{Limit: 10000, Offset: -3})
	if err != nil {
		t.Fatalf("List(clamp) error = %v", err)
	}
	if clamped.Limit != maxLimit || clamped.Offset != 0 {
		t.Errorf("clamped limit/offset = %d/%d", clamped.Limit, clamped.Offset)
	}
}

func TestList_Empty(t *testing.T) {
	res, err := newTestRepo(t).List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("Entries = %#v, want empty slice", res.Entries)
	}
}
