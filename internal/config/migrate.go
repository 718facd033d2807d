package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bryanchriswhite/swayrst/internal/logger"
)

// migrate upgrades an older config document to CurrentVersion and writes it
// back to path. The returned document is the one to read.
func migrate(path string, data []byte) ([]byte, error) {
	log := logger.WithComponent("config")

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	version := 0
	if n, ok := doc[KeyVersion].(float64); ok {
		version = int(n)
	}
	switch {
	case version == CurrentVersion:
		return data, nil
	case version > CurrentVersion:
		return nil, fmt.Errorf("unsupported config version %d in %s", version, path)
	}

	log.Info().
		Str("path", path).
		Int("from", version).
		Int("to", CurrentVersion).
		Msg("Migrating config")

	upgradeFlat(doc)
	doc[KeyVersion] = CurrentVersion
	doc[KeyRespectOtherWorkspaces] = false

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal migrated config: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to save migrated config")
	}
	return out, nil
}

// upgradeFlat moves the unversioned top level launcher keys into the
// start_missing_apps section.
func upgradeFlat(doc map[string]any) {
	active, flat := doc["start_missing_apps"].(bool)
	if !flat {
		return
	}
	section := map[string]any{"active": active}
	if t, ok := doc["command_translation"]; ok {
		section["command_translation"] = t
		delete(doc, "command_translation")
	}
	if t, ok := doc["app_start_timeout"]; ok {
		section["timeout"] = t
		delete(doc, "app_start_timeout")
	}
	doc["start_missing_apps"] = section
}
