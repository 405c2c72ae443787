package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	devenv "ourvend-sync/dev/env"
)

// FilesystemOutput writes each dumped request/response pair to its own
// file in a directory. Files are numbered in the order they were written
// so a listing reads like the session did.
type FilesystemOutput struct {
	directory string
	written   *atomic.Int64
}

// NewFilesystemOutput empties dir (which may start with <dev_state>) and
// writes dumps into it.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir, written: &atomic.Int64{}}, nil
}

func (o FilesystemOutput) Dir() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	n := o.written.Add(1)
	name := fmt.Sprintf("%03d-%s.txt", n, id)
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write request dump", "id", id, "err", err)
	}
}
