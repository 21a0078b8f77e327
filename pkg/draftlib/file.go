package draftlib

import (
	"io"
	"path/filepath"

	"github.com/spf13/afero"
)

// File is an opaque binary payload with a name, a size, and a declared
// MIME type. It is backed by an afero filesystem so the upload pipeline
// runs identically on disk files and in-memory test fixtures.
type File struct {
	Name string
	MIME string
	Size int64

	fs   afero.Fs
	path string
}

// NewFile wraps an existing file on fs. The name is the path's base name
// and the size comes from a stat call; the declared MIME type is taken
// from the caller (the upload queue validates it, not the content).
func NewFile(fs afero.Fs, path, mimeType string) (File, error) {
	fi, err := fs.Stat(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name: filepath.Base(path),
		MIME: mimeType,
		Size: fi.Size(),
		fs:   fs,
		path: path,
	}, nil
}

// NewMemFile builds a File from raw bytes, backed by an in-memory
// filesystem. Used for transform outputs and tests.
func NewMemFile(name, mimeType string, data []byte) (File, error) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, name, data, 0644); err != nil {
		return File{}, err
	}
	return File{
		Name: name,
		MIME: mimeType,
		Size: int64(len(data)),
		fs:   fs,
		path: name,
	}, nil
}

// Open returns a reader over the payload. The caller closes it.
func (f File) Open() (io.ReadCloser, error) {
	return f.fs.Open(f.path)
}

// ReadAll reads the whole payload into memory.
func (f File) ReadAll() ([]byte, error) {
	return afero.ReadFile(f.fs, f.path)
}
