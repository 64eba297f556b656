package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// configFileName is the per-project configuration file written by init and
// honored by parse when flags do not override it.
const configFileName = "celerrate.toml"

// Config is the on-disk project configuration.
type Config struct {
	PHP   PHPConfig   `toml:"php"`
	Parse ParseConfig `toml:"parse"`
}

// PHPConfig pins the PHP dialect for the project.
type PHPConfig struct {
	Version string `toml:"version"`
}

// ParseConfig carries parse-command defaults.
type ParseConfig struct {
	Format  string `toml:"format"`
	Workers int    `toml:"workers"`
}

func defaultConfig() Config {
	return Config{
		PHP:   PHPConfig{Version: "8.4"},
		Parse: ParseConfig{Format: "json", Workers: 0},
	}
}

// loadConfig reads celerrate.toml from dir. A missing file is not an
// error; the second return value reports whether one was found.
func loadConfig(dir string) (Config, bool, error) {
	path := filepath.Join(dir, configFileName)

	var cfg Config

	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), false, nil
		}

		return Config{}, false, fmt.Errorf("reading %s: %w", path, err)
	}

	return cfg, true, nil
}

// writeConfig writes the configuration to dir/celerrate.toml.
func writeConfig(dir string, cfg Config) error {
	path := filepath.Join(dir, configFileName)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	enc := toml.NewEncoder(file)

	err = enc.Encode(cfg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	return nil
}
