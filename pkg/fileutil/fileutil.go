package fileutil

import (
	"encoding/json"
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
)

// WriteJSON writes v as indented JSON. The file is replaced only once it is fully written.
func WriteJSON(filePath string, v any) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return xerrors.Errorf("unable to create a directory: %w", err)
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal JSON: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return xerrors.Errorf("unable to create a temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err = f.Write(append(b, '\n')); err != nil {
		f.Close()
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	if err = f.Close(); err != nil {
		return xerrors.Errorf("failed to save a file: %w", err)
	}
	if err = os.Rename(f.Name(), filePath); err != nil {
		return xerrors.Errorf("unable to rename %s: %w", f.Name(), err)
	}
	return nil
}
