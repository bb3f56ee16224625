package fs

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// untouched panics on every call, naming the operation and path. Tests use
// it to prove a code path reports without reading or writing files.
type untouched struct{}

// NewNoop returns a FileSystem that panics when used.
func NewNoop() FileSystem {
	return untouched{}
}

func touched(op, path string) {
	panic(fmt.Sprintf("fs: unexpected %s %q", op, path))
}

func (untouched) Name() string { return "untouched" }

func (untouched) Create(name string) (afero.File, error) {
	touched("create", name)
	return nil, nil
}

func (untouched) Mkdir(name string, _ os.FileMode) error {
	touched("mkdir", name)
	return nil
}

func (untouched) MkdirAll(path string, _ os.FileMode) error {
	touched("mkdir", path)
	return nil
}

func (untouched) Open(name string) (afero.File, error) {
	touched("open", name)
	return nil, nil
}

func (untouched) OpenFile(name string, _ int, _ os.FileMode) (afero.File, error) {
	touched("open", name)
	return nil, nil
}

func (untouched) Remove(name string) error {
	touched("remove", name)
	return nil
}

func (untouched) RemoveAll(path string) error {
	touched("remove", path)
	return nil
}

func (untouched) Rename(oldname, _ string) error {
	touched("rename", oldname)
	return nil
}

func (untouched) Stat(name string) (os.FileInfo, error) {
	touched("stat", name)
	return nil, nil
}

func (untouched) Chmod(name string, _ os.FileMode) error {
	touched("chmod", name)
	return nil
}

func (untouched) Chown(name string, _, _ int) error {
	touched("chown", name)
	return nil
}

func (untouched) Chtimes(name string, _, _ time.Time) error {
	touched("chtimes", name)
	return nil
}

func (untouched) AppendLine(path, _ string) error {
	touched("append", path)
	return nil
}

func (untouched) IsRegular(path string) bool {
	touched("stat", path)
	return false
}
