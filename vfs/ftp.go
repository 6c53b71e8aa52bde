package vfs

import (
	"fmt"
	"io"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPFileSystem serves files from a remote FTP server. Each
// operation dials a fresh connection; the FTP wire protocol keeps
// one transfer per control connection anyway, so pooling buys
// little.
type FTPFileSystem struct {
	Address  string
	User     string
	Password string
	Timeout  time.Duration
}

func NewFTPFileSystem(address, user, password string) *FTPFileSystem {
	if len(user) == 0 {
		user = "anonymous"
		password = "anonymous"
	}
	return &FTPFileSystem{Address: address, User: user, Password: password, Timeout: 30 * time.Second}
}

func (fs *FTPFileSystem) connect() (*ftp.ServerConn, error) {
	conn, err := ftp.Dial(fs.Address, ftp.DialWithTimeout(fs.Timeout))
	if err != nil {
		return nil, fmt.Errorf("ftp dial %s: %v", fs.Address, err)
	}
	if err := conn.Login(fs.User, fs.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login %s: %v", fs.Address, err)
	}
	return conn, nil
}

// ftpFile closes the control connection together with the data
// stream.
type ftpFile struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (f *ftpFile) Read(p []byte) (int, error) {
	return f.resp.Read(p)
}

func (f *ftpFile) Close() error {
	err := f.resp.Close()
	f.conn.Quit()
	return err
}

func (fs *FTPFileSystem) Open(path string) (io.ReadCloser, error) {
	conn, err := fs.connect()
	if err != nil {
		return nil, err
	}
	resp, err := conn.Retr(path)
	if err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp retr %s: %v", path, err)
	}
	return &ftpFile{resp: resp, conn: conn}, nil
}

func (fs *FTPFileSystem) Stat(path string) (*FileInfo, error) {
	conn, err := fs.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	size, err := conn.FileSize(path)
	if err != nil {
		return nil, fmt.Errorf("ftp size %s: %v", path, err)
	}
	return &FileInfo{Name: path, Size: size}, nil
}

func (fs *FTPFileSystem) List(dir string) ([]*FileInfo, error) {
	conn, err := fs.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	entries, err := conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("ftp list %s: %v", dir, err)
	}
	var out []*FileInfo
	for _, e := range entries {
		if e.Type != ftp.EntryTypeFile {
			continue
		}
		out = append(out, &FileInfo{Name: e.Name, Size: int64(e.Size), ModTime: e.Time})
	}
	return out, nil
}
