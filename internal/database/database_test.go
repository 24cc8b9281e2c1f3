package database

import (
	"testing"
	"testing/fstest"

	"github.com/alicebob/miniredis/v2"
)

func TestMigrationFiles_Embedded(t *testing.T) {
	files, err := migrationFiles(migrationFS)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 embedded migrations, got %d", len(files))
	}
	if files[0].version != 1 || files[1].version != 2 {
		t.Errorf("unexpected order: %+v", files)
	}
}

func TestMigrationFiles_OrderAndSkip(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/010_late.sql":    {Data: []byte("SELECT 1;")},
		"migrations/002_second.sql":  {Data: []byte("SELECT 1;")},
		"migrations/README.md":       {Data: []byte("notes")},
		"migrations/seed.sql":        {Data: []byte("SELECT 1;")},
		"migrations/abc_invalid.sql": {Data: []byte("SELECT 1;")},
	}

	files, err := migrationFiles(fsys)
	if err != nil {
		t.Fatalf("migrationFiles: %v", err)
	}
	if len(files) != 2 || files[0].name != "002_second.sql" || files[1].name != "010_late.sql" {
		t.Errorf("unexpected files: %+v", files)
	}
}

func TestMigrationFiles_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/001_a.sql": {Data: []byte("SELECT 1;")},
		"migrations/1_b.sql":   {Data: []byte("SELECT 1;")},
	}

	if _, err := migrationFiles(fsys); err == nil {
		t.Fatal("expected duplicate version error")
	}
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer client.Close()
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	if _, err := NewRedisClient("not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
