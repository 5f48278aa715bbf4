package export

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	ErrDirectoryCreate = errors.New("cannot create directory")
	ErrWrite           = errors.New("cannot write file")
)

// WriteFile replaces destination with data. The content lands in a temporary
// sibling first, so a reader never sees a partially written page.
func WriteFile(destination string, data []byte) error {
	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(ErrDirectoryCreate, "%s: %v", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destination)+".*")
	if err != nil {
		return errors.Wrapf(ErrWrite, "%s: %v", destination, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(ErrWrite, "%s: %v", destination, err)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(ErrWrite, "%s: %v", destination, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return errors.Wrapf(ErrWrite, "%s: %v", destination, err)
	}
	if err = os.Rename(tmpName, destination); err != nil {
		return errors.Wrapf(ErrWrite, "%s: %v", destination, err)
	}
	return nil
}
