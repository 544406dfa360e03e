/*
This file defines opener interface and its implementations.
We don't want to execute disk I/O in test, so it's better to use byte slice instead of actual file in test.
For this reason, opener interface is defined. Opener opens its storage. The implementations are:
- fileOpener: open and return file.
- bufferOpener: open and return byte slice. this is intended to be used in test.
*/
package disk

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// dataFileName is the name of the single data file under base directory
const dataFileName = "data"

// opener opens storage
type opener interface {
	open() (storage, error)
}

// fileOpener opens file
type fileOpener struct{}

// newFileOpener initializes fileOpener
func newFileOpener() *fileOpener {
	return &fileOpener{}
}

// open opens and returns the data file under base directory
func (fo *fileOpener) open() (storage, error) {
	filePath := filepath.Join(baseDir, dataFileName)
	fd, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "os.OpenFile failed")
	}
	return fileStorage{fd}, nil
}

// bufferOpener opens buffer
type bufferOpener struct{}

// newBufferOpener initializes bufferOpener
func newBufferOpener() *bufferOpener {
	return &bufferOpener{}
}

// open returns buffer storage
func (bo *bufferOpener) open() (storage, error) {
	return newBufferStorage(), nil
}
