package assembler

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileSystem reads sources, includes and inserted files.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
}

type osFS struct{}

func (osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// OS returns the host file system.
func OS() FileSystem {
	return osFS{}
}

type ioFS struct {
	fsys fs.FS
}

func (f ioFS) ReadFile(name string) ([]byte, error) {
	name = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "/")
	return fs.ReadFile(f.fsys, name)
}

// FS adapts an fs.FS, such as embed.FS or fstest.MapFS.
func FS(fsys fs.FS) FileSystem {
	return ioFS{fsys: fsys}
}

// resolvePath resolves name relative to the directory of the file from.
func resolvePath(from, name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(filepath.Dir(from), name)
}
