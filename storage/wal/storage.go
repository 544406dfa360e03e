/*
storage for the log file. same pattern as storage/disk:
file storage for real use, buffer storage for tests.
*/
package wal

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// the directory path of wal files
var walDir = "base/wal"

// walFileName is the name of the single log file under wal directory
const walFileName = "wal"

// storage is storage which implements operations necessary for the log file
type storage interface {
	io.WriteSeeker
	Sync() error
}

// fileStorage is file storage
type fileStorage struct {
	*os.File
}

// newFileStorage opens the log file under wal directory
func newFileStorage() (storage, error) {
	if _, err := os.Stat(walDir); !os.IsExist(err) {
		if err := os.MkdirAll(walDir, 0700); err != nil {
			return nil, errors.Wrap(err, "os.MkdirAll failed")
		}
	}
	fd, err := os.OpenFile(filepath.Join(walDir, walFileName), os.O_RDWR|os.O_CREATE, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "os.OpenFile failed")
	}
	return fileStorage{fd}, nil
}

// bufferStorage is buffer storage
type bufferStorage struct {
	buf []byte
	off int
}

// newBufferStorage initializes bufferStorage
func newBufferStorage() *bufferStorage {
	return &bufferStorage{buf: []byte{}}
}

// Sync doesn't do anything
func (bs *bufferStorage) Sync() error {
	return nil
}

// Write writes p into buffer at current position
func (bs *bufferStorage) Write(p []byte) (n int, err error) {
	if end := bs.off + len(p); end > len(bs.buf) {
		extended := make([]byte, end)
		copy(extended, bs.buf)
		bs.buf = extended
	}
	nwritten := copy(bs.buf[bs.off:], p)
	bs.off = bs.off + nwritten
	return nwritten, nil
}

// Seek seeks and moves buffer off
func (bs *bufferStorage) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, errors.Errorf("whence is unexpected: %d", whence)
	}
	bs.off = int(offset)
	return offset, nil
}
