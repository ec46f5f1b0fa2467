package dcmconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_ValidConfigUsesCacheDirFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"params":{"cache_dir":"/tmp/dcmspec"}}`)

	cfg := Load(path, nil)
	if got := cfg.Params.CacheDir; got != "/tmp/dcmspec" {
		t.Errorf("CacheDir: got %q, want %q", got, "/tmp/dcmspec")
	}
	if cfg.Logger == nil {
		t.Error("Logger: got nil, want non-nil")
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.json"), nil)

	if cfg.Params.CacheDir == "" {
		t.Error("a missing config must still default cache_dir")
	}
}

func TestLoad_InvalidJSONLogsAndFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{not valid json`)

	cfg := Load(path, nil)
	if cfg.Params.CacheDir == "" {
		t.Error("CacheDir: got empty, want default")
	}
	if len(cfg.Tables) != 0 {
		t.Errorf("Tables: got %v, want empty", cfg.Tables)
	}
}

func TestLoad_EmptyCacheDirDefaultsToUserCacheDir(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{"params":{}}`)

	cfg := Load(path, nil)
	userCacheDir, err := os.UserCacheDir()
	if err == nil {
		if got := cfg.Params.CacheDir; got != userCacheDir {
			t.Errorf("CacheDir: got %q, want %q", got, userCacheDir)
		}
	}
}

func TestLoad_TablesAndIodsAndPart6AreParsed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"params": {"cache_dir": "/cache"},
		"tables": {"patient": {"url": "http://x", "cache_file_name": "p.xhtml", "table_id": "t1", "name_attr": "elem_name"}},
		"iods": {"ct-image": {"url": "http://y", "cache_file_name": "c.xhtml", "iod_table_id": "t2"}},
		"part6": {"PS3.6": {"url": "http://z", "cache_file_name": "p6.xhtml", "table_id": "t3"}}
	}`)

	cfg := Load(path, nil)
	table, ok := cfg.Tables["patient"]
	if !ok {
		t.Fatalf("Tables: missing %q", "patient")
	}
	if got := table.TableID; got != "t1" {
		t.Errorf("TableID: got %q, want %q", got, "t1")
	}
	iod, ok := cfg.Iods["ct-image"]
	if !ok {
		t.Fatalf("Iods: missing %q", "ct-image")
	}
	if got := iod.IodTableID; got != "t2" {
		t.Errorf("IodTableID: got %q, want %q", got, "t2")
	}
	part6, ok := cfg.Part6["PS3.6"]
	if !ok {
		t.Fatalf("Part6: missing %q", "PS3.6")
	}
	if got := part6.TableID; got != "t3" {
		t.Errorf("TableID: got %q, want %q", got, "t3")
	}
}
