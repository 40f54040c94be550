package batch

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrmechko/ifscraper/pkg/checkpoint"
	errs "github.com/mrmechko/ifscraper/pkg/errors"
)

// Format is the encoding of a batch file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Entry is one listing to scrape. Code and URL are derived from Generator
// when missing.
type Entry struct {
	Generator string `json:"generator" yaml:"generator"`
	Code      string `json:"code,omitempty" yaml:"code,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
}

// FormatOf picks the format from the file extension
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadEntries reads a JSON or YAML list of entries
func LoadEntries(path string) ([]Entry, Format, error) {
	format := FormatOf(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, format, errs.Wrap(errs.ErrorTypeFilesystem, err, fmt.Sprintf("failed to read batch file %s", path))
	}

	var entries []Entry
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, format, errs.Wrap(errs.ErrorTypeParsing, err, fmt.Sprintf("failed to parse batch file %s", path))
	}
	return entries, format, nil
}

// SaveEntries writes entries back in the given format
func SaveEntries(path string, entries []Entry, format Format) error {
	if format == FormatJSON {
		return checkpoint.WriteJSON(path, entries)
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeParsing, err, "failed to encode batch file")
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to write batch file")
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to replace batch file")
	}
	return nil
}

// Resolve fills in Code and URL. Code is the last non-empty path segment of
// the generator. URL is the generator itself when it is an absolute http(s)
// URL, otherwise urlTemplate with {code} substituted.
func Resolve(e Entry, urlTemplate string) (Entry, error) {
	generator := strings.TrimSpace(e.Generator)
	if generator == "" && e.URL == "" {
		return e, errs.New(errs.ErrorTypeParsing, "entry has neither generator nor url")
	}
	if generator == "" {
		generator = e.URL
	}

	u, err := url.Parse(generator)
	if err != nil {
		return e, errs.Wrap(errs.ErrorTypeParsing, err, fmt.Sprintf("invalid generator %q", generator))
	}

	if e.Code == "" {
		e.Code = lastSegment(u.Path)
		if e.Code == "" && !u.IsAbs() {
			e.Code = lastSegment(u.Opaque)
		}
		if e.Code == "" {
			return e, errs.New(errs.ErrorTypeParsing, fmt.Sprintf("cannot derive a code from %q", generator))
		}
	}

	if e.URL == "" {
		if u.IsAbs() && (u.Scheme == "http" || u.Scheme == "https") {
			e.URL = generator
		} else {
			e.URL = strings.ReplaceAll(urlTemplate, "{code}", e.Code)
		}
	}
	return e, nil
}

func lastSegment(p string) string {
	segments := strings.Split(p, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}
