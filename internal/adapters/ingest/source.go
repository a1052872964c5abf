package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/okian/welltest/internal/domain/model"
)

// DirSource reads records from DataDir and annotations with the same file
// name from TruthDir. TruthDir may be empty when no annotations exist.
type DirSource struct {
	DataDir  string
	TruthDir string
}

// List returns the sorted names of the *.csv files in DataDir.
func (d DirSource) List() ([]string, error) {
	entries, err := os.ReadDir(d.DataDir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.DataDir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Load reads one record and, when present, its annotation.
func (d DirSource) Load(name string) (model.Input, error) {
	if name != filepath.Base(name) {
		return model.Input{}, fmt.Errorf("%w: %q is not a plain file name", fs.ErrInvalid, name)
	}

	f, err := os.Open(filepath.Join(d.DataDir, name))
	if err != nil {
		return model.Input{}, fmt.Errorf("open record: %w", err)
	}
	defer func() { _ = f.Close() }()

	series, err := ReadSeries(f)
	if err != nil {
		return model.Input{}, fmt.Errorf("%s: %w", name, err)
	}
	in := model.Input{Series: series}

	if d.TruthDir == "" {
		return in, nil
	}
	tf, err := os.Open(filepath.Join(d.TruthDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return in, nil
	}
	if err != nil {
		return model.Input{}, fmt.Errorf("open truth: %w", err)
	}
	defer func() { _ = tf.Close() }()

	truth, err := ReadTruth(tf)
	if err != nil {
		return model.Input{}, fmt.Errorf("%s truth: %w", name, err)
	}
	in.Truth = &truth
	return in, nil
}
