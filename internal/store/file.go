package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileDb is a Db stored as a JSON document.
type FileDb struct {
	*Storage
	path string
}

// LoadFile reads the JSON database at path. A missing or empty file is an
// empty database; a malformed one is an error.
func LoadFile(path string) (*FileDb, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &FileDb{Storage: NewStorage(), path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load database %s: %w", path, err)
	}
	s, err := unmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("load database %s: %w", path, err)
	}
	return &FileDb{Storage: s, path: path}, nil
}

// Path returns the file the database is written to.
func (d *FileDb) Path() string { return d.path }

// Write implements Db. The new document is written to a temporary file in
// the same directory, synced, and renamed over the old one.
func (d *FileDb) Write(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshalDocument(d.Storage)
	if err != nil {
		return err
	}
	if err := writeAtomic(d.path, data); err != nil {
		return fmt.Errorf("write database %s: %w", d.path, err)
	}
	d.markWritten()
	return nil
}

// Close implements Db.
func (*FileDb) Close() error { return nil }

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err := tmp.Write(data); err != nil {
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
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
