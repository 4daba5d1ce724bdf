package presentweather

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveRecovery writes the window's episodes to path as a JSON list. The
// file is replaced atomically.
func (w *Window) SaveRecovery(path string) error {
	data, err := json.Marshal(w.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding episodes: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating recovery file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing recovery file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing recovery file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing recovery file: %w", err)
	}
	return nil
}

// LoadRecovery reads episodes written by SaveRecovery. A missing file is
// reported with an error wrapping fs.ErrNotExist.
func LoadRecovery(path string) ([]Episode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var episodes []Episode
	if err := json.Unmarshal(data, &episodes); err != nil {
		return nil, fmt.Errorf("decoding recovery file %s: %w", path, err)
	}
	return episodes, nil
}
