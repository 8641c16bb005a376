package apt

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

const (
	distsDir     = "dists"
	binaryPrefix = "binary-"
)

// indexNames are the index files we know how to read, in order of
// preference. Only the first one found is used for a given
// (suite, architecture) pair.
var indexNames = []string{"Packages", "Packages.gz", "Packages.xz", "Packages.zst"}

// Source is one discovered Packages index, identified by the suite,
// component and architecture it was found under.
type Source struct {
	Suite        string
	Component    string
	Architecture string
	Path         string

	fs afero.Fs
}

// Open returns the decompressed byte stream of the index. The caller
// is responsible for closing it.
func (s Source) Open() (io.ReadCloser, error) {
	f, err := s.fs.Open(s.Path)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(s.Path) {
	case ".gz":
		gr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening gzip index: %w", err)
		}
		return &decompressedReader{Reader: gr, closers: []io.Closer{gr, f}}, nil
	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening xz index: %w", err)
		}
		return &decompressedReader{Reader: xr, closers: []io.Closer{f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("opening zstd index: %w", err)
		}
		rc := zr.IOReadCloser()
		return &decompressedReader{Reader: rc, closers: []io.Closer{rc, f}}, nil
	default:
		return f, nil
	}
}

type decompressedReader struct {
	io.Reader
	closers []io.Closer
}

func (d *decompressedReader) Close() error {
	var err error
	for _, c := range d.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Locator discovers the package indices of a repository laid out in
// the conventional dists/<suite>/<component>/binary-<arch> shape.
type Locator struct {
	fs   afero.Fs
	root string
}

func NewLocator(fs afero.Fs, root string) *Locator {
	return &Locator{
		fs:   fs,
		root: root,
	}
}

// Locate walks the repository and returns one Source per
// (suite, architecture) pair for which an index file exists, in
// traversal order. An unreadable dists directory is fatal; anything
// below it that cannot be read is skipped with a warning.
func (l *Locator) Locate(ctx context.Context) ([]Source, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("root", l.root)

	dists := filepath.Join(l.root, distsDir)
	suites, err := afero.ReadDir(l.fs, dists)
	if err != nil {
		return nil, fmt.Errorf("reading dists directory: %w", err)
	}

	var out []Source
	for _, suite := range suites {
		if !suite.IsDir() {
			continue
		}
		suiteDir := filepath.Join(dists, suite.Name())
		components, err := afero.ReadDir(l.fs, suiteDir)
		if err != nil {
			log.Info("skipping unreadable suite", "suite", suite.Name(), "error", err)
			continue
		}
		for _, component := range components {
			if !component.IsDir() {
				continue
			}
			componentDir := filepath.Join(suiteDir, component.Name())
			arches, err := afero.ReadDir(l.fs, componentDir)
			if err != nil {
				log.Info("skipping unreadable component", "suite", suite.Name(), "component", component.Name(), "error", err)
				continue
			}
			for _, arch := range arches {
				if !arch.IsDir() || !strings.HasPrefix(arch.Name(), binaryPrefix) {
					continue
				}
				src, ok := l.findIndex(suite.Name(), component.Name(), arch.Name())
				if !ok {
					log.V(1).Info("no index file found", "suite", suite.Name(), "component", component.Name(), "arch", arch.Name())
					continue
				}
				log.V(1).Info("located index", "suite", src.Suite, "component", src.Component, "arch", src.Architecture, "path", src.Path)
				out = append(out, src)
			}
		}
	}
	return out, nil
}

func (l *Locator) findIndex(suite, component, archDir string) (Source, bool) {
	dir := filepath.Join(l.root, distsDir, suite, component, archDir)
	for _, name := range indexNames {
		p := filepath.Join(dir, name)
		if ok, _ := afero.Exists(l.fs, p); !ok {
			continue
		}
		return Source{
			Suite:        suite,
			Component:    component,
			Architecture: strings.TrimPrefix(archDir, binaryPrefix),
			Path:         p,
			fs:           l.fs,
		}, true
	}
	return Source{}, false
}
