// Package dcmconfig loads the pipeline's JSON configuration file, grounded
// on docpipe.Config's parse-or-default shape: a malformed file never fails
// startup, it logs and falls back to defaults.
package dcmconfig

import (
	"encoding/json"
	"log/slog"
	"os"
)

// Config is the top-level JSON shape: {"params": {"cache_dir": "..."}}.
// Tables, Iods and Part6 are a cmd/dcmspec-only extension: the CLI's
// `table <id>`/`iod <id>` arguments name an entry here, leaving the
// id-to-URL mapping out of the core pipeline packages.
type Config struct {
	Params Params             `json:"params"`
	Tables map[string]Table   `json:"tables"`
	Iods   map[string]Iod     `json:"iods"`
	Part6  map[string]Table   `json:"part6"`

	// Logger for load-time diagnostics. Never a package-level global.
	Logger *slog.Logger `json:"-"`
}

// Params holds the pipeline's tunables.
type Params struct {
	CacheDir string `json:"cache_dir"`
}

// Table names a single-table build: a URL, the cached document name, the
// target table's anchor id, and the column layout to parse it with.
type Table struct {
	URL           string         `json:"url"`
	CacheFileName string         `json:"cache_file_name"`
	TableID       string         `json:"table_id"`
	ColumnToAttr  map[int]string `json:"column_to_attr"`
	NameAttr      string         `json:"name_attr"`
}

// Iod names an IOD expansion: the IOD's own index table plus the column
// layout shared by every module table it references.
type Iod struct {
	URL             string         `json:"url"`
	CacheFileName   string         `json:"cache_file_name"`
	IodTableID      string         `json:"iod_table_id"`
	IodColumnToAttr map[int]string `json:"iod_column_to_attr"`
	IodNameAttr     string         `json:"iod_name_attr"`
	Module          Table          `json:"module"`
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Params.CacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.Params.CacheDir = dir
		}
	}
}

// Load reads path and parses it as a Config. Invalid JSON and a missing
// file are both non-fatal: the error is logged and a default Config (with
// the platform user-cache dir) is returned.
func Load(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := &Config{Logger: logger}

	b, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("dcmconfig: could not read config file, using defaults", "path", path, "error", err)
		cfg.defaults()
		return cfg
	}

	if err := json.Unmarshal(b, cfg); err != nil {
		logger.Error("dcmconfig: invalid config JSON, using defaults", "path", path, "error", err)
		cfg = &Config{Logger: logger}
	}
	cfg.defaults()
	return cfg
}
