package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Stebibastian/kas-filesync/internal/logger"
	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/util"
	"go.uber.org/zap"
)

// Document is the on-disk registry format, owned by the external manager UI.
// The daemon only ever reads it; the pair commands write it on the manager's
// behalf.
type Document struct {
	Pairs []model.SyncPair `json:"pairs"`
}

// Load reads the registry file. A missing file is an empty registry, not an
// error, so the daemon can start before any pair is configured.
func Load(path string) (Document, error) {
	var doc Document

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return doc, fmt.Errorf("failed to read registry: %w", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse registry: %w", err)
	}

	return doc, nil
}

// LoadValid returns only the pairs that pass validation. Malformed entries
// are logged and skipped; they never take the other pairs down with them.
func LoadValid(path string) ([]model.SyncPair, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	pairs := make([]model.SyncPair, 0, len(doc.Pairs))
	seen := make(map[string]bool)

	for _, pair := range doc.Pairs {
		if err := Validate(pair); err != nil {
			logger.Log.Warn("skipping pair",
				zap.String("pair", pair.Name),
				zap.Error(err))
			continue
		}

		if seen[pair.Name] {
			logger.Log.Warn("skipping duplicate pair name",
				zap.String("pair", pair.Name))
			continue
		}

		seen[pair.Name] = true
		pairs = append(pairs, pair)
	}

	return pairs, nil
}

func Validate(pair model.SyncPair) error {
	if pair.Name == "" {
		return fmt.Errorf("pair has no name")
	}

	if !filepath.IsAbs(pair.SourcePath) || !filepath.IsAbs(pair.TargetFolder) {
		return fmt.Errorf("source and target must be absolute paths")
	}

	info, err := os.Stat(pair.SourcePath)
	if err != nil {
		return fmt.Errorf("source file missing: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("source %s is a directory, expected a file", pair.SourcePath)
	}

	info, err = os.Stat(pair.TargetFolder)
	if err != nil {
		return fmt.Errorf("target folder missing: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("target %s is not a directory", pair.TargetFolder)
	}

	return nil
}

// Save rewrites the registry document. Used by the pair management commands
// only; the daemon itself never calls it.
func Save(path string, doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	return util.AtomicWrite(path, append(data, '\n'))
}
