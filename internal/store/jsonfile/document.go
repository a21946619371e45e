package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// document is one JSON file holding a value of type T. Every
// read-modify-write runs under the document mutex and lands on disk through
// a temp file, fsync and rename, so readers never see a partial write.
type document[T any] struct {
	mu   sync.Mutex
	path string
	zero func() T
}

func newDocument[T any](path string, zero func() T) *document[T] {
	return &document[T]{path: path, zero: zero}
}

// load reads the file. A missing, empty or null file yields the zero value.
func (d *document[T]) load() (T, error) {
	v := d.zero()
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return v, nil
		}
		return v, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", filepath.Base(d.path), err)
	}
	return v, nil
}

func (d *document[T]) save(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(d.path, data)
}

// view calls fn with the current contents.
func (d *document[T]) view(fn func(T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.load()
	if err != nil {
		return err
	}
	return fn(v)
}

// update loads, applies fn and saves. Nothing is written when fn fails.
func (d *document[T]) update(fn func(*T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.load()
	if err != nil {
		return err
	}
	if err := fn(&v); err != nil {
		return err
	}
	return d.save(v)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

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
	return os.Rename(tmpName, path)
}
