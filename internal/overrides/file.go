package overrides

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ewebtechsuk/aktonz2-sub001/internal/platform/models"
	"github.com/rs/zerolog"
)

// File persists overrides as single JSON document mapping listing id to override.
type File struct {
	path   string
	logger zerolog.Logger
}

// NewFile returns new File persister of document at path.
func NewFile(path string, logger zerolog.Logger) *File {
	return &File{
		path:   path,
		logger: logger.With().Str("path", path).Logger(),
	}
}

// Load returns overrides stored in file. Missing file holds no overrides and
// malformed file is logged and read as empty.
func (f *File) Load(_ context.Context) (map[string]models.Override, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]models.Override{}, nil
		}
		return nil, fmt.Errorf("can't read overrides file: %w", err)
	}

	overrides := map[string]models.Override{}
	if len(data) == 0 {
		return overrides, nil
	}
	if err := json.Unmarshal(data, &overrides); err != nil {
		f.logger.Error().Err(err).Msg("malformed overrides file, starting empty")
		return map[string]models.Override{}, nil
	}

	return overrides, nil
}

// Store writes snapshot to temporary file and renames it over the document.
func (f *File) Store(_ context.Context, snapshot map[string]models.Override, _ string) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("can't encode overrides: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("can't create overrides directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("can't create temporary overrides file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("can't write temporary overrides file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("can't sync temporary overrides file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("can't close temporary overrides file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("can't replace overrides file: %w", err)
	}

	return nil
}
