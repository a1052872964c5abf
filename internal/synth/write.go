package synth

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/welltest/internal/adapters/export"
)

const (
	dirPermission  = 0o750
	filePermission = 0o644
)

// FileName is the name record i is written under.
func FileName(i int) string { return fmt.Sprintf("well_%04d.csv", i) }

// WriteDataset writes each record's series to dataDir and its annotation to
// truthDir under the same name, creating both directories. It returns the
// file names in record order.
func WriteDataset(dataDir, truthDir string, recs []Record) ([]string, error) {
	for _, dir := range []string{dataDir, truthDir} {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	names := make([]string, len(recs))
	for i, r := range recs {
		name := FileName(i)
		if err := writeFile(filepath.Join(dataDir, name), func(f *os.File) error {
			return export.WriteSeries(f, r.Series)
		}); err != nil {
			return nil, err
		}
		if err := writeFile(filepath.Join(truthDir, name), func(f *os.File) error {
			return export.WriteTruth(f, r.Truth)
		}); err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
