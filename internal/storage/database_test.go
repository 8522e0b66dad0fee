package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// testDB opens a migrated database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestNew_InvalidPath(t *testing.T) {
	if _, err := New("/nonexistent-dir/sub/test.db"); err == nil {
		t.Error("New() expected error for unwritable path, got nil")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := testDB(t)
	if err := Migrate(db); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"sqlite default format", "2026-09-01 10:30:00", false},
		{"rfc3339", "2026-09-01T10:30:00Z", false},
		{"garbage", "yesterday", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseTimestamp(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseTimestamp(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}
