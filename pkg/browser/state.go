package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/mashangworks/webot/pkg/logging"
)

// loadStorageState reads a persisted-state snapshot from disk.
//
// The caller has already checked that the file exists and that the browser
// process is healthy. Recoverable problems with the file itself (permission
// denied, corrupt JSON, wrong shape) return (nil, nil) after logging, which
// callers treat as "start with a fresh context". Any other read failure is
// propagated.
func loadStorageState(path string, log *logging.Logger) (*playwright.OptionalStorageState, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("state file disappeared, creating fresh context: %s", path)
			return nil, nil
		}
		if os.IsPermission(err) {
			log.Warnf("cannot read state file, creating fresh context: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	// The snapshot must be a JSON object; anything else is a corrupt or
	// foreign file and degrades to a fresh context.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(content, &probe); err != nil {
		log.Warnf("cannot parse state file, creating fresh context: %v", err)
		return nil, nil
	}

	state := &playwright.OptionalStorageState{}
	if err := json.Unmarshal(content, state); err != nil {
		log.Warnf("state file has unexpected shape, creating fresh context: %v", err)
		return nil, nil
	}

	log.Infof("loaded persisted state from %s (%d cookies, %d origins)",
		path, len(state.Cookies), len(state.Origins))
	return state, nil
}

// writeStorageState persists a storage-state snapshot with an atomic
// temp-file rename so a crash mid-write never corrupts the previous state.
func writeStorageState(path string, state *playwright.StorageState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode storage state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to move state file into place: %w", err)
	}
	return nil
}
