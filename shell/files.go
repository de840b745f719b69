package shell

import (
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
)

// Partials resolves template include paths. Relative paths are rooted
// at the configured partial directory, absolute paths are honored as
// written.
type Partials struct {
	fsys afero.Fs
	dir  string
}

// NewPartials roots include resolution at dir on fsys.
func NewPartials(fsys afero.Fs, dir string) Partials {
	return Partials{fsys: fsys, dir: dir}
}

// ReadFile implements the file collaborator for template renders.
func (p Partials) ReadFile(path string) ([]byte, error) {
	if p.fsys == nil {
		return nil, fs.ErrNotExist
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(p.dir, path)
	}

	return afero.ReadFile(p.fsys, path)
}
