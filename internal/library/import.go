// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

// paperRecord is the subset of a paper metadata file that
// maps onto a work.
type paperRecord struct {
	ID       string `yaml:"id"`
	Title    string `yaml:"title"`
	Abstract string `yaml:"abstract"`
}

// ImportSummary holds counts from an import run.
type ImportSummary struct {
	Imported int
	Failed   int
	Works    []types.Work
}

// ImportMetadata reads every *.yaml / *.yml paper metadata file in dir and
// adds each as a work keyed by its id (or file name when id is empty).
// Files are processed in name order; a bad file is reported to w and
// skipped.
func (l *Library) ImportMetadata(ctx context.Context, dir string, w io.Writer) (ImportSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ImportSummary{}, fmt.Errorf("reading metadata directory %s: %w", dir, err)
	}

	var summary ImportSummary
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		work, err := readPaperRecord(filepath.Join(dir, entry.Name()))
		if err == nil {
			err = l.AddWork(ctx, work)
		}
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", entry.Name(), err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "imported %s\n", work.Key)
		summary.Imported++
		summary.Works = append(summary.Works, work)
	}
	return summary, nil
}

func readPaperRecord(path string) (types.Work, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Work{}, err
	}
	var rec paperRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return types.Work{}, fmt.Errorf("parse error: %w", err)
	}
	key := rec.ID
	if key == "" {
		key = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return types.Work{
		Key:      key,
		Title:    strings.TrimSpace(rec.Title),
		Abstract: strings.TrimSpace(rec.Abstract),
	}, nil
}
