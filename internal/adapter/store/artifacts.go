package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// BackupSuffix is appended to the previous version of an artifact.
const BackupSuffix = ".backup"

// JSONArtifactStore reads and writes stage artifacts as indented UTF-8 JSON.
type JSONArtifactStore struct{}

func NewJSONArtifactStore() *JSONArtifactStore {
	return &JSONArtifactStore{}
}

// Save writes v to a temp file next to path, copies any existing artifact to
// path+BackupSuffix, then renames the temp file into place. A failed write
// leaves the existing artifact untouched.
func (s *JSONArtifactStore) Save(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if prev, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+BackupSuffix, prev, 0644); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("failed to back up %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		os.Remove(tmpName)
		return fmt.Errorf("failed to read existing artifact: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

// Load decodes the artifact at path into v.
func (s *JSONArtifactStore) Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%s is not a valid JSON file: %w", path, err)
	}
	return nil
}
