package vfs

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"path"
	"sort"
	"sync"
	"time"
)

// MemoryFileSystem holds files in process memory. It backs tests
// and small synthetic datasets; writes after construction are
// allowed and safe for concurrent readers.
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	mtime map[string]time.Time
}

func NewMemoryFileSystem() *MemoryFileSystem {
	return &MemoryFileSystem{
		files: map[string][]byte{},
		mtime: map[string]time.Time{},
	}
}

// Put stores a file, replacing any previous content at the path.
func (fs *MemoryFileSystem) Put(p string, data []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	fs.files[path.Clean(p)] = buf
	fs.mtime[path.Clean(p)] = time.Now()
}

func (fs *MemoryFileSystem) Open(p string) (io.ReadCloser, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	data, ok := fs.files[path.Clean(p)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func (fs *MemoryFileSystem) Stat(p string) (*FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	clean := path.Clean(p)
	data, ok := fs.files[clean]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	return &FileInfo{Name: path.Base(clean), Size: int64(len(data)), ModTime: fs.mtime[clean]}, nil
}

func (fs *MemoryFileSystem) List(dir string) ([]*FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	clean := path.Clean(dir)
	var out []*FileInfo
	for p, data := range fs.files {
		if path.Dir(p) != clean {
			continue
		}
		out = append(out, &FileInfo{Name: path.Base(p), Size: int64(len(data)), ModTime: fs.mtime[p]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
