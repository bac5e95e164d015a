package io

import (
	"io"
	"os"
	"path/filepath"
)

// CreateFS is a file system that supports creating files.
type CreateFS interface {
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
}

// DirFS is a CreateFS rooted at an operating system directory.
type DirFS string

var _ CreateFS = DirFS("")

// Create creates or truncates a file in the directory.
func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	return os.Create(filepath.Join(string(dir), filepath.FromSlash(name)))
}
