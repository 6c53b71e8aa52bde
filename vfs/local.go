package vfs

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
)

// LocalFileSystem serves files from a directory on local disk.
// Every path is resolved under Root; attempts to escape it are
// rejected.
type LocalFileSystem struct {
	Root string
}

func NewLocalFileSystem(root string) (*LocalFileSystem, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("local file system root %s: %v", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local file system root %s is not a directory", root)
	}
	return &LocalFileSystem{Root: root}, nil
}

func (fs *LocalFileSystem) resolve(path string) (string, error) {
	full := filepath.Join(fs.Root, filepath.FromSlash(path))
	rel, err := filepath.Rel(fs.Root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %s escapes the file system root", path)
	}
	return full, nil
}

func (fs *LocalFileSystem) Open(path string) (io.ReadCloser, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (fs *LocalFileSystem) Stat(path string) (*FileInfo, error) {
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	return &FileInfo{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (fs *LocalFileSystem) List(dir string) ([]*FileInfo, error) {
	full, err := fs.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := ioutil.ReadDir(full)
	if err != nil {
		return nil, err
	}
	out := make([]*FileInfo, 0, len(entries))
	for _, info := range entries {
		if info.IsDir() {
			continue
		}
		out = append(out, &FileInfo{Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return out, nil
}
