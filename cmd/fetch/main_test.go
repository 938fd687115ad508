package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"trendwatch/internal/core"
)

func TestRunUnknownCountryReturnsExitCode(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "trends.db")
	t.Setenv("TRENDS_DB_PATH", dbPath)
	t.Setenv("TRENDS_OUTPUT_DIR", filepath.Join(dir, "JSONs"))
	t.Setenv("TRENDS_LOG_LEVEL", "error")

	if code := run([]string{"-countries", "Atlantis"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}

	// the ledger was migrated and released before run returned
	db, err := core.OpenSQLite(dbPath, core.NewLogger())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM fetch_runs").Scan(&count); err != nil {
		t.Fatalf("fetch_runs should exist: %v", err)
	}
	if count != 0 {
		t.Errorf("expected no ledger rows, got %d", count)
	}

	if _, err := os.Stat(filepath.Join(dir, "JSONs")); !os.IsNotExist(err) {
		t.Errorf("no dataset should be written, stat err = %v", err)
	}
}

func TestRunWithoutLedger(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "trends.db")
	t.Setenv("TRENDS_DB_PATH", dbPath)
	t.Setenv("TRENDS_LOG_LEVEL", "error")

	if code := run([]string{"-no-ledger", "-countries", "Atlantis"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Errorf("-no-ledger should not create the database, stat err = %v", err)
	}
}

func TestRunBadFlag(t *testing.T) {
	if code := run([]string{"-bogus"}); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestSplitNames(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"India", []string{"India"}},
		{" India , United Kingdom,,", []string{"India", "United Kingdom"}},
	}

	for _, tt := range tests {
		if got := splitNames(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitNames(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
