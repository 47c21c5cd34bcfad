// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package outcome

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tldr-engine/pkg/types"
)

// FileSubstrate keeps outcomes in a YAML document mapping each work key to
// its note key, or to false when no TL;DR was found. Writes go to a temp
// file that is renamed over the document while holding both an in-process
// mutex and an advisory lock on path+".lock".
type FileSubstrate struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewFileSubstrate returns a substrate backed by path. The file and its
// directory are created on first write.
func NewFileSubstrate(path string) *FileSubstrate {
	return &FileSubstrate{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the outcome document path.
func (f *FileSubstrate) Path() string { return f.path }

// Load reads the document. A missing file is an empty mapping.
func (f *FileSubstrate) Load(ctx context.Context) (map[string]types.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

// Modify applies fn under the lock and rewrites the document.
func (f *FileSubstrate) Modify(ctx context.Context, fn func(map[string]types.Outcome) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating outcome directory: %w", err)
	}
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", f.path, err)
	}
	defer f.lock.Unlock()

	m, err := f.read()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return f.write(m)
}

func (f *FileSubstrate) read() (map[string]types.Outcome, error) {
	m := make(map[string]types.Outcome)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	if m == nil {
		m = make(map[string]types.Outcome)
	}
	// yaml skips Unmarshalers for null values and leaves a zero Outcome.
	for k, o := range m {
		if o.State == "" {
			return nil, fmt.Errorf("parsing %s: outcome for %q is null", f.path, k)
		}
	}
	return m, nil
}

func (f *FileSubstrate) write(m map[string]types.Outcome) error {
	for k, o := range m {
		if o.State == types.OutcomeUnresolved {
			delete(m, k)
		}
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding outcomes: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".outcomes-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing outcomes: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
