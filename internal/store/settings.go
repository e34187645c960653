package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

const (
	settingsNS  = "settings"
	settingsKey = "last"
)

// LoadSettings returns the last-used settings. A missing or corrupt value
// yields ok == false.
func LoadSettings(ctx context.Context, kv KV) (model.Settings, bool, error) {
	data, ok, err := kv.Get(ctx, settingsNS, settingsKey)
	if err != nil {
		return model.Settings{}, false, fmt.Errorf("failed to read settings: %w", err)
	}
	if !ok {
		return model.Settings{}, false, nil
	}
	var s model.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Settings{}, false, nil
	}
	return s, true, nil
}

// SaveSettings persists the last-used settings.
func SaveSettings(ctx context.Context, kv KV, s model.Settings) error {
	return NewNamespace(kv, settingsNS).SetJSON(ctx, settingsKey, s)
}
