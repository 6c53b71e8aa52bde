package vfs

import (
	"io"
	"time"
)

// FileInfo describes one file of a virtual file system. ModTime is
// the zero time when the backend does not track it.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// FileSystem is the access facade over the storage backends a
// dataset may live on. Paths are forward slash separated and
// interpreted relative to the backend root.
type FileSystem interface {
	Open(path string) (io.ReadCloser, error)
	Stat(path string) (*FileInfo, error)
	List(dir string) ([]*FileInfo, error)
}
