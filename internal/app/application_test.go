package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"pairpad/internal/config"
)

// freePort grabs an ephemeral port from the kernel and releases it for the
// application to bind.
func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = freePort(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "app_test.db")
	return cfg
}

func TestApplicationRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.Port = -1

	if _, err := NewApplication(cfg); err == nil {
		t.Error("expected an error for an invalid configuration")
	}
}

func TestApplicationLifecycle(t *testing.T) {
	app, err := NewApplication(testConfig(t))
	if err != nil {
		t.Fatalf("failed to build application: %v", err)
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("failed to start application: %v", err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", app.Addr()))
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected healthy application, got %d", resp.StatusCode)
	}

	resp, err = http.Get(fmt.Sprintf("http://%s/api/questions", app.Addr()))
	if err != nil {
		t.Fatalf("questions request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected question catalog served, got %d", resp.StatusCode)
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		t.Fatalf("failed to stop application: %v", err)
	}
}

func TestApplicationSeedsCatalogOnStartup(t *testing.T) {
	cfg := testConfig(t)

	// Build twice against the same database file; seeding is idempotent so
	// the second boot must not fail on existing rows.
	for i := 0; i < 2; i++ {
		app, err := NewApplication(cfg)
		if err != nil {
			t.Fatalf("boot %d failed: %v", i+1, err)
		}
		if err := app.db.Close(); err != nil {
			t.Fatalf("close %d failed: %v", i+1, err)
		}
	}
}
