// Package migrate upgrades result files whose captions were stored as raw
// alt text into the structured caption form.
package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mrmechko/ifscraper/pkg/checkpoint"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
	"github.com/mrmechko/ifscraper/pkg/logger"
	"github.com/mrmechko/ifscraper/pkg/parser"
)

// captionKeys are the record fields that may hold the caption, newest first
var captionKeys = []string{"caption", "alt"}

// Stats counts what an update touched
type Stats struct {
	Files   int
	Records int
	Updated int
}

func (s *Stats) add(o Stats) {
	s.Files += o.Files
	s.Records += o.Records
	s.Updated += o.Updated
}

// UpdateFile re-parses every record in path whose caption is still a plain
// string and rewrites the file with two-space indentation. Records that
// already carry a structured caption are left byte-for-byte equivalent.
func UpdateFile(path string, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	stats := Stats{Files: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		return stats, errs.Wrap(errs.ErrorTypeFilesystem, err, fmt.Sprintf("failed to read %s", path))
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return stats, errs.Wrap(errs.ErrorTypeParsing, err, fmt.Sprintf("%s is not a json array", path))
	}
	stats.Records = len(records)

	for i, raw := range records {
		updated, changed, err := updateRecord(raw)
		if err != nil {
			log.WithError(err).WarnWithFields("Leaving malformed record untouched", map[string]interface{}{
				"path":  path,
				"index": i,
			})
			continue
		}
		if changed {
			records[i] = updated
			stats.Updated++
		}
	}

	if err := checkpoint.WriteJSON(path, records); err != nil {
		return stats, err
	}

	log.InfoWithFields("Updated result file", map[string]interface{}{
		"path":    path,
		"records": stats.Records,
		"updated": stats.Updated,
	})
	return stats, nil
}

// UpdateDirectory runs UpdateFile on <dir>/<sub>/<fname> for every
// subdirectory that has one
func UpdateDirectory(dir, fname string, log logger.Logger) (Stats, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if fname == "" {
		fname = checkpoint.FileName("")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, errs.Wrap(errs.ErrorTypeFilesystem, err, fmt.Sprintf("failed to read %s", dir))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var total Stats
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), fname)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		stats, err := UpdateFile(path, log)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Update dispatches to UpdateFile or UpdateDirectory depending on path
func Update(path, fname string, log logger.Logger) (Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Stats{}, errs.Wrap(errs.ErrorTypeFilesystem, err, fmt.Sprintf("failed to stat %s", path))
	}
	if info.IsDir() {
		return UpdateDirectory(path, fname, log)
	}
	return UpdateFile(path, log)
}

func updateRecord(raw json.RawMessage) (json.RawMessage, bool, error) {
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return raw, false, err
	}

	for _, key := range captionKeys {
		value, ok := record[key]
		if !ok {
			continue
		}
		text, isString := value.(string)
		if !isString {
			return raw, false, nil
		}
		record[key] = parser.ParseCaption(text, hasTitle(record))
		out, err := json.Marshal(record)
		if err != nil {
			return raw, false, err
		}
		return out, true, nil
	}
	return raw, false, nil
}

func hasTitle(record map[string]interface{}) bool {
	if _, ok := record["title"]; ok {
		return true
	}
	flag, _ := record["has_title"].(bool)
	return flag
}
