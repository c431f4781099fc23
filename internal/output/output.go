// Package output writes generated files under a target's output root and
// compares them with what is already on disk.
package output

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/okra-platform/movegen/internal/codegen/target"
	"github.com/okra-platform/movegen/internal/errors"
)

// FileSystem defines the file system operations output needs
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
}

// OS is the real file system.
type OS struct{}

func (OS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (OS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Writer writes result files below a root directory.
type Writer struct {
	fs     FileSystem
	logger zerolog.Logger
}

// NewWriter creates a writer over fs.
func NewWriter(fs FileSystem, logger zerolog.Logger) *Writer {
	return &Writer{fs: fs, logger: logger.With().Str("component", "output").Logger()}
}

// Write stores files under root. Files whose content is unchanged are left
// alone. It returns the paths that were written.
func (w *Writer) Write(root string, files []target.File) ([]string, error) {
	var written []string
	for _, f := range files {
		full, err := join(root, f.Path)
		if err != nil {
			return written, err
		}
		if existing, err := w.fs.ReadFile(full); err == nil && bytes.Equal(existing, f.Content) {
			w.logger.Debug().Str("path", full).Msg("unchanged")
			continue
		}
		if err := w.fs.MkdirAll(filepath.Dir(full), 0755); err != nil {
			return written, errors.Wrapf(err, "failed to create directory for %s", full)
		}
		if err := w.fs.WriteFile(full, f.Content, 0644); err != nil {
			return written, errors.Wrapf(err, "failed to write %s", full)
		}
		w.logger.Debug().Str("path", full).Int("bytes", len(f.Content)).Msg("wrote file")
		written = append(written, full)
	}
	return written, nil
}

// DriftKind says how a file on disk differs from the generated one
type DriftKind string

const (
	Missing DriftKind = "missing"
	Changed DriftKind = "changed"
)

// Drift is one generated file that does not match the disk.
type Drift struct {
	Path string
	Kind DriftKind
}

func (d Drift) String() string {
	return string(d.Kind) + " " + d.Path
}

// Diff compares files with their counterparts under root. The result is
// sorted by path and empty when everything is up to date.
func Diff(fsys FileSystem, root string, files []target.File) ([]Drift, error) {
	var drift []Drift
	for _, f := range files {
		full, err := join(root, f.Path)
		if err != nil {
			return nil, err
		}
		existing, err := fsys.ReadFile(full)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			drift = append(drift, Drift{Path: full, Kind: Missing})
		case err != nil:
			return nil, errors.Wrapf(err, "failed to read %s", full)
		case !bytes.Equal(existing, f.Content):
			drift = append(drift, Drift{Path: full, Kind: Changed})
		}
	}
	sort.Slice(drift, func(i, j int) bool { return drift[i].Path < drift[j].Path })
	return drift, nil
}

// join resolves a result path below root, refusing paths that escape it.
func join(root, rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", errors.Newf("generated path %q escapes the output directory", rel)
	}
	return filepath.Join(root, local), nil
}
