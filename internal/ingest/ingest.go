// Package ingest discovers syllabus files on disk, either once by walking a
// directory tree or continuously by watching it.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/joseph-ayodele/syllabus-calendar/constants"
	"github.com/joseph-ayodele/syllabus-calendar/internal/entity"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// Scan walks root and returns the accepted files under it in lexical order.
func Scan(fs afero.Fs, root string, skipHidden bool) ([]string, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, errors.New("root path is required")
	}

	var paths []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if skipHidden && path != root && IsHidden(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			stats.Skipped++
			return nil
		}
		if info.IsDir() {
			return nil
		}
		stats.Scanned++
		if !Accepted(path) {
			stats.Skipped++
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("scan %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// Load reads path and tags it with the MIME type implied by its extension.
func Load(fs afero.Fs, path string) (entity.Document, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return entity.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return entity.Document{
		Name: filepath.Base(path),
		MIME: constants.MIMEFromExt(filepath.Ext(path)),
		Data: data,
	}, nil
}

// LoadAll reads every path, expanding directories with Scan.
func LoadAll(fs afero.Fs, paths []string, logger *slog.Logger) ([]entity.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var docs []entity.Document
	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files := []string{p}
		if info.IsDir() {
			var stats DirStats
			files, stats, err = Scan(fs, p, true)
			if err != nil {
				return nil, err
			}
			logger.Debug("ingest.scan.ok", "root", p, "scanned", stats.Scanned, "matched", stats.Matched, "skipped", stats.Skipped)
		}
		for _, f := range files {
			doc, err := Load(fs, f)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}
