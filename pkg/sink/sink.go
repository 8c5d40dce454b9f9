package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

var (
	ErrCreateDir = errors.New("failed to create log directory")
	ErrAppend    = errors.New("failed to write to log file")
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Appender durably appends a single serialized record to a destination file.
type Appender interface {
	Append(path, line string) error
}

// File appends records to local files. The zero value is ready to use.
//
// Every call opens the destination in append mode and closes it before returning,
// so no handle outlives a single record. The kernel positions each write at the
// current end of file, which keeps concurrent appends from overlapping without
// any locking here.
type File struct{}

// Append ensures the parent directory of path exists, then appends line to path
// with a single write. Failures are reported to the diagnostic log and returned
// wrapped in ErrCreateDir or ErrAppend; the record is not retried.
func (File) Append(path, line string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		err = fmt.Errorf("%w %s: %v", ErrCreateDir, dir, err)
		log.Errorf("[sink] %v", err)
		return err
	}

	if err := appendLine(path, line); err != nil {
		err = fmt.Errorf("%w %s: %v", ErrAppend, path, err)
		log.Errorf("[sink] %v", err)
		return err
	}

	log.Debugf("[sink] appended %d bytes to %s", len(line), path)
	return nil
}

func appendLine(path, line string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	_, err = f.Write([]byte(line))
	return err
}

// Append appends line to path using File.
func Append(path, line string) error {
	return File{}.Append(path, line)
}
