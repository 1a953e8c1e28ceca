package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrationFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestLoadMigrations(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFiles(t, dir, map[string]string{
		"001_identity.sql":     "CREATE TABLE provider (id UUID PRIMARY KEY);",
		"002_availability.sql": "CREATE TABLE slot (id UUID PRIMARY KEY);",
		"003_auth.sql":         "CREATE TABLE refresh_token (id UUID PRIMARY KEY);",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	first := migrations[0]
	if first.Version != 1 {
		t.Errorf("expected version 1, got %d", first.Version)
	}
	if first.Name != "001_identity.sql" {
		t.Errorf("expected name 001_identity.sql, got %s", first.Name)
	}
	if first.SQL != "CREATE TABLE provider (id UUID PRIMARY KEY);" {
		t.Errorf("unexpected SQL content: %s", first.SQL)
	}
	if migrations[1].Version != 2 || migrations[2].Version != 3 {
		t.Errorf("expected versions 2 and 3, got %d and %d", migrations[1].Version, migrations[2].Version)
	}
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	dir := t.TempDir()

	// Written out of order; lexical filename order would also put 010 first.
	writeMigrationFiles(t, dir, map[string]string{
		"010_reporting.sql":    "SELECT 10;",
		"002_availability.sql": "SELECT 2;",
		"001_identity.sql":     "SELECT 1;",
		"005_indexes.sql":      "SELECT 5;",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	want := []int{1, 2, 5, 10}
	if len(migrations) != len(want) {
		t.Fatalf("expected %d migrations, got %d", len(want), len(migrations))
	}
	for i, v := range want {
		if migrations[i].Version != v {
			t.Errorf("migration[%d]: expected version %d, got %d", i, v, migrations[i].Version)
		}
	}
}

func TestLoadMigrations_SkipsUnversionedFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigrationFiles(t, dir, map[string]string{
		"001_identity.sql":     "SELECT 1;",
		"002_availability.sql": "SELECT 2;",
		"readme.sql":           "-- no version prefix",
		"notes.txt":            "not a sql file",
		"abc_invalid.sql":      "-- non-numeric prefix",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 valid migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Errorf("expected versions 1 and 2, got %d and %d", migrations[0].Version, migrations[1].Version)
	}
}

func TestLoadMigrations_EmptyDir(t *testing.T) {
	migrations, err := NewMigrator(nil, t.TempDir()).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}
	if len(migrations) != 0 {
		t.Errorf("expected 0 migrations from empty dir, got %d", len(migrations))
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	_, err := NewMigrator(nil, "/nonexistent/migrations").LoadMigrations()
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestMigrationStatus_Categorization(t *testing.T) {
	// Status needs a live pool for the applied-versions query, so this covers
	// the categorization it performs on top of LoadMigrations.
	dir := t.TempDir()
	writeMigrationFiles(t, dir, map[string]string{
		"001_identity.sql":     "CREATE TABLE provider (id UUID);",
		"002_availability.sql": "CREATE TABLE slot (id UUID);",
		"003_auth.sql":         "CREATE TABLE refresh_token (id UUID);",
	})

	migrations, err := NewMigrator(nil, dir).LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	applied := map[int]bool{1: true}
	var statuses []MigrationStatus
	for _, mig := range migrations {
		statuses = append(statuses, MigrationStatus{
			Version: mig.Version,
			Name:    mig.Name,
			Applied: applied[mig.Version],
		})
	}

	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if !statuses[0].Applied {
		t.Error("expected migration 001 to be applied")
	}
	if statuses[1].Applied || statuses[2].Applied {
		t.Error("expected migrations 002 and 003 to be pending")
	}
	if statuses[1].AppliedAt != nil || statuses[2].AppliedAt != nil {
		t.Error("expected nil AppliedAt for pending migrations")
	}
	if statuses[1].Name != "002_availability.sql" {
		t.Errorf("expected name 002_availability.sql, got %s", statuses[1].Name)
	}
}

func TestNewMigrator(t *testing.T) {
	m := NewMigrator(nil, "./migrations")
	if m == nil {
		t.Fatal("expected non-nil Migrator")
	}
	if m.dir != "./migrations" {
		t.Errorf("expected dir ./migrations, got %s", m.dir)
	}
}
