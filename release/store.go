package release

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
)

// DefaultVersionsPath is the default location of the version record.
const DefaultVersionsPath = "versions.json"

// Versions records, per upstream key, the release tag last seen. An
// empty tag means the upstream has never been checked.
type Versions map[string]string

// defaultVersions returns a record with an empty tag for every tracked
// upstream.
func defaultVersions() Versions {
	v := make(Versions, len(Upstreams))
	for _, u := range Upstreams {
		v[u.Key] = ""
	}
	return v
}

// LoadVersions reads the JSON version record at path. A missing file
// yields the zero record; a malformed file is logged and also yields
// the zero record, so a corrupted store never blocks an update check.
func LoadVersions(path string, log *zap.Logger) Versions {
	if log == nil {
		log = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("reading version record failed", zap.String("path", path), zap.Error(err))
		}
		return defaultVersions()
	}

	var v Versions
	if err := json.Unmarshal(data, &v); err != nil {
		log.Warn("parsing version record failed", zap.String("path", path), zap.Error(err))
		return defaultVersions()
	}
	return v
}

// SaveVersions writes the version record to path as indented JSON.
func SaveVersions(v Versions, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode version record: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write version record: %w", err)
	}
	return nil
}
