// store/config.go
// Copyright(c) 2025 sailpilot contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/mmp/sailpilot/log"
	"github.com/mmp/sailpilot/nav"
	"github.com/mmp/sailpilot/util"
)

// LoadConfig overlays the JSON config file at path on the default
// configuration. A missing file gives the defaults.
func LoadConfig(path string, lg *log.Logger) (nav.Config, error) {
	cfg := nav.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		lg.Infof("%s: no config file, using defaults", path)
		return cfg, nil
	} else if err != nil {
		return cfg, err
	}

	for _, dup := range util.FindDuplicateJSONKeys(b) {
		lg.Warn("duplicate key in config", slog.String("path", path), slog.String("at", dup.Path),
			slog.String("key", dup.Key))
	}

	if err := util.UnmarshalJSONBytes(b, &cfg); err != nil {
		return nav.DefaultConfig(), err
	}
	cfg.Validate(lg)
	return cfg, nil
}

func SaveConfig(path string, cfg nav.Config) error {
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0644)
}
