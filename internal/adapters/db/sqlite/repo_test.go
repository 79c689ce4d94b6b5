package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"locline/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := applyMigrations(db); err != nil {
		t.Fatalf("second migration pass: %v", err)
	}
}

func TestSettingsRepo(t *testing.T) {
	repo := NewSettingsRepo(openTestDB(t))
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); err == nil {
		t.Fatal("expected an error for a missing key")
	}
	if err := repo.Set(ctx, "run_config", `{"model":"a"}`); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "run_config", `{"model":"b"}`); err != nil {
		t.Fatal(err)
	}
	v, err := repo.Get(ctx, "run_config")
	if err != nil {
		t.Fatal(err)
	}
	if v != `{"model":"b"}` {
		t.Fatalf("got %q after upsert", v)
	}
}

func TestCacheRepo(t *testing.T) {
	repo := NewCacheRepo(openTestDB(t))
	ctx := context.Background()

	if _, hit, err := repo.Get(ctx, "Hello", "m1"); err != nil || hit {
		t.Fatalf("miss expected, hit=%v err=%v", hit, err)
	}
	if err := repo.Put(ctx, "Hello", "m1", "Bonjour"); err != nil {
		t.Fatal(err)
	}
	tr, hit, err := repo.Get(ctx, "Hello", "m1")
	if err != nil || !hit || tr != "Bonjour" {
		t.Fatalf("got %q hit=%v err=%v", tr, hit, err)
	}
	// The same source under another model is a separate entry.
	if _, hit, _ := repo.Get(ctx, "Hello", "m2"); hit {
		t.Fatal("cache must be keyed by model too")
	}
	if err := repo.Put(ctx, "Hello", "m1", "Salut"); err != nil {
		t.Fatal(err)
	}
	if tr, _, _ := repo.Get(ctx, "Hello", "m1"); tr != "Salut" {
		t.Fatalf("upsert not applied, got %q", tr)
	}
}

func TestRunRepo(t *testing.T) {
	repo := NewRunRepo(openTestDB(t))
	ctx := context.Background()

	run := &domain.Run{ID: "r1", File: "in.txt", Output: "tran.txt", Model: "m1", Status: "running", Total: 10}
	if err := repo.Create(ctx, run); err != nil {
		t.Fatal(err)
	}
	if run.CreatedAt.IsZero() || run.UpdatedAt.IsZero() {
		t.Fatal("timestamps not set on create")
	}

	if err := repo.UpdateProgress(ctx, "r1", 10, 10, "done"); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Status != "done" || got.Done != 10 || got.Total != 10 {
		t.Fatalf("unexpected run: %+v", got)
	}
	if got.File != "in.txt" || got.Model != "m1" {
		t.Fatalf("fields lost: %+v", got)
	}

	if missing, err := repo.Get(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("missing run: got %+v err=%v", missing, err)
	}

	if err := repo.Create(ctx, &domain.Run{ID: "r2", Status: "running"}); err != nil {
		t.Fatal(err)
	}
	runs, err := repo.List(ctx, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	seen := map[string]bool{}
	for _, r := range runs {
		seen[r.ID] = true
	}
	if !seen["r1"] || !seen["r2"] {
		t.Fatalf("list missing runs: %v", seen)
	}
}
