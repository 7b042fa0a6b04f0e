package panel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/termpremium/internal/contracts"
)

// RawFileSource loads the raw dataset and derives the cleaned panel on every Load
type RawFileSource struct {
	Path string
}

// NewRawFileSource creates a new raw file source
func NewRawFileSource(path string) *RawFileSource {
	return &RawFileSource{Path: path}
}

// Load implements contracts.PanelSource
func (s *RawFileSource) Load(ctx context.Context) ([]contracts.PanelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open raw panel %s: %w", s.Path, err)
	}
	defer f.Close()

	raw, err := ReadRawCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read raw panel %s: %w", s.Path, err)
	}
	return Derive(raw)
}

// NewSource picks the file source for path
func NewSource(path string, raw bool) contracts.PanelSource {
	if raw {
		return NewRawFileSource(path)
	}
	return NewFileSource(path)
}

// SaveCSV writes records to path through a temp file in the same directory
func SaveCSV(path string, records []contracts.PanelRecord) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // rename 성공 후에는 no-op

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
