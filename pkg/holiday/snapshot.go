package holiday

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

const snapshotFile = "holiday-calendars.gob"

// snapshotStore persists fetched calendars across process restarts so a
// CLI run does not refetch a country it already saw this week.
type snapshotStore struct {
	logger *slog.Logger
	dir    string
	mu     sync.Mutex
}

func (s *snapshotStore) load() (map[string]calendar, error) {
	path := filepath.Join(s.dir, snapshotFile)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening holiday snapshot: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && s.logger != nil {
			s.logger.Debug("failed to close snapshot file", "error", closeErr)
		}
	}()

	var calendars map[string]calendar
	if err := gob.NewDecoder(file).Decode(&calendars); err != nil {
		return nil, fmt.Errorf("decoding holiday snapshot: %w", err)
	}
	return calendars, nil
}

func (s *snapshotStore) save(calendars map[string]calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	path := filepath.Join(s.dir, snapshotFile)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	defer func() {
		if removeErr := os.Remove(tempPath); removeErr != nil && !os.IsNotExist(removeErr) && s.logger != nil {
			s.logger.Debug("failed to remove temp snapshot file", "error", removeErr)
		}
	}()

	if err := gob.NewEncoder(file).Encode(calendars); err != nil {
		return fmt.Errorf("encoding holiday snapshot: %w", err)
	}
	if err := file.Sync(); err != nil {
		return fmt.Errorf("syncing holiday snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing holiday snapshot: %w", err)
	}

	// Atomic replace so readers never see a partial snapshot.
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing holiday snapshot: %w", err)
	}
	return nil
}
