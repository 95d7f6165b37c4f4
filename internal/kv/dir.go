package kv

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Dir stores each key as <dir>/<key>.
type Dir struct {
	dir string
}

// OpenDir creates dir (0700) if needed and returns a Dir store on it.
func OpenDir(dir string) (*Dir, error) {
	if dir == "" {
		return nil, errors.New("kv: dir path is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Dir{dir: dir}, nil
}

// Path returns the backing directory.
func (d *Dir) Path() string {
	return d.dir
}

func (d *Dir) Get(key string) (string, bool, error) {
	if err := validateKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(filepath.Join(d.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes atomically via a temp file + rename so readers never observe a
// partially written value.
func (d *Dir) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".daybook-"+key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(d.dir, key))
}

func (d *Dir) Remove(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(d.dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
