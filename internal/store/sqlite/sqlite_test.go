package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/openleague/openleague-go/internal/store"
	"github.com/openleague/openleague-go/internal/store/testutil"
)

func newTestDriver(t *testing.T, dataDir string) *Driver {
	t.Helper()

	d, err := NewDriver(&store.DriverConfig{
		Driver:  "sqlite",
		DataDir: dataDir,
		Options: map[string]any{"file_name": "test.db"},
	})
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	if err := d.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d.(*Driver)
}

func TestSQLiteDriver(t *testing.T) {
	d := newTestDriver(t, t.TempDir())
	defer d.Close()

	if d.Name() != "sqlite" {
		t.Errorf("Name() = %q, want sqlite", d.Name())
	}

	testutil.RunStoreTests(t, d)
}

func TestSQLiteDriverRequiresDataDir(t *testing.T) {
	if _, err := NewDriver(&store.DriverConfig{Driver: "sqlite"}); err == nil {
		t.Fatal("expected error for missing data_dir")
	}
}

// Data written before Close must be readable after a fresh Init on the
// same file.
func TestSQLiteDriverSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	d := newTestDriver(t, dir)
	user := &store.User{
		ID:        "u-restart",
		Name:      "Restart",
		Email:     "restart@example.com",
		CreatedAt: time.Now().UTC(),
	}
	if err := d.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	d2 := newTestDriver(t, dir)
	defer d2.Close()

	got, err := d2.GetUser(ctx, "u-restart")
	if err != nil {
		t.Fatalf("GetUser after restart: %v", err)
	}
	if got.Email != "restart@example.com" {
		t.Errorf("email after restart = %q", got.Email)
	}
}
