package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/models"
)

// BackupSuffix is appended to the output file name to form the checkpoint
const BackupSuffix = ".backup"

// FileName returns the output file name for a shard: scrape.json, or
// scrape_<shard>.json when a shard id is set.
func FileName(shard string) string {
	if shard == "" {
		return "scrape.json"
	}
	return fmt.Sprintf("scrape_%s.json", shard)
}

// Store persists a run's collection under its output root
type Store struct {
	outputPath     string
	checkpointPath string
	logger         logger.Logger
}

// NewStore creates a store writing <outputRoot>/scrape[_<shard>].json and
// its .backup checkpoint
func NewStore(outputRoot, shard string, log logger.Logger) *Store {
	if log == nil {
		log = logger.GetLogger()
	}
	out := filepath.Join(outputRoot, FileName(shard))
	return &Store{
		outputPath:     out,
		checkpointPath: out + BackupSuffix,
		logger:         log,
	}
}

// OutputPath is the final results file
func (s *Store) OutputPath() string {
	return s.outputPath
}

// CheckpointPath is the intermediate checkpoint file
func (s *Store) CheckpointPath() string {
	return s.checkpointPath
}

// Persist overwrites the checkpoint with the full collection
func (s *Store) Persist(items []models.Item) error {
	if err := WriteJSON(s.checkpointPath, nonNil(items)); err != nil {
		return err
	}
	logger.LogCheckpoint(s.logger, s.checkpointPath, len(items))
	return nil
}

// Finalize writes the output file and then removes the checkpoint
func (s *Store) Finalize(items []models.Item) error {
	if err := WriteJSON(s.outputPath, nonNil(items)); err != nil {
		return err
	}
	if err := s.Discard(); err != nil {
		return err
	}

	s.logger.InfoWithFields("Results written", map[string]interface{}{
		"path":  s.outputPath,
		"items": len(items),
	})
	return nil
}

// Load reads the checkpoint. It returns nil, nil when none exists.
func (s *Store) Load() ([]models.Item, error) {
	file, err := os.Open(s.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to open checkpoint file")
	}
	defer file.Close()

	var items []models.Item
	if err := json.NewDecoder(file).Decode(&items); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "failed to decode checkpoint")
	}

	s.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":  s.checkpointPath,
		"items": len(items),
	})
	return items, nil
}

// Exists checks if a checkpoint file exists
func (s *Store) Exists() bool {
	_, err := os.Stat(s.checkpointPath)
	return err == nil
}

// Discard removes the checkpoint file if present
func (s *Store) Discard() error {
	if err := os.Remove(s.checkpointPath); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to delete checkpoint")
	}
	return nil
}

// WriteJSON encodes v with two-space indentation and atomically replaces
// path with it.
func WriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create output directory")
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to create temporary file")
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to encode json")
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to sync file")
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to close file")
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to replace file")
	}

	return nil
}

func nonNil(items []models.Item) []models.Item {
	if items == nil {
		return []models.Item{}
	}
	return items
}
