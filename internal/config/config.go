// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the settings for a tri process: how it logs, how its blob
// vault caches and compresses content, and where it checkpoints to disk.
type Config struct {
	Environment string `json:"environment"` // development, production
	LogLevel    string `json:"log_level"`   // debug, info, warn, error

	Vault struct {
		CacheSize     int `json:"cache_size"`      // LRU entries kept in memory
		CompressAfter int `json:"compress_after"`  // bytes; content smaller than this is never compressed
	} `json:"vault"`

	Author struct {
		DefaultName string `json:"default_name"`
	} `json:"author"`

	SnapshotPath string `json:"snapshot_path"` // loaded but not read by any command; `tri snapshot`/`tri restore` take their directory as an argument
}

// Default returns sensible defaults so a repository can run with no config
// file present at all.
func Default() *Config {
	c := &Config{
		Environment: "development",
		LogLevel:    "info",
	}
	c.Vault.CacheSize = 1000
	c.Vault.CompressAfter = 1024
	c.Author.DefaultName = "user"
	return c
}

func getConfigPath() string {
	env := os.Getenv("TRI_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

// Load reads a JSON config file, falling back to Default() fields left
// unset in the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = getConfigPath()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}
