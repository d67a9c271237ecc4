package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidName = errors.New("invalid blob name")
)

// Info describes one stored blob.
type Info struct {
	Name    string
	ModTime time.Time
}

// Store keeps attachment bytes under their stored filename.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Info, error)
}

// ValidName reports whether name is a single path element that stays inside the store.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}

// DiskStore keeps blobs as plain files in one directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates dir when missing.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Dir() string {
	return d.dir
}

// Put writes data to a temp file first and renames it, so readers never see partial blobs.
func (d *DiskStore) Put(_ context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}

	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(d.dir, name))
}

func (d *DiskStore) Get(_ context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(d.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *DiskStore) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}

	err := os.Remove(filepath.Join(d.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// List returns every stored blob. Temp files from in-flight uploads are skipped.
func (d *DiskStore) List(_ context.Context) ([]Info, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, err
	}

	blobs := make([]Info, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".upload-") {
			continue
		}

		fi, err := e.Info()
		if errors.Is(err, os.ErrNotExist) {
			// Deleted between ReadDir and Info.
			continue
		}
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, Info{Name: e.Name(), ModTime: fi.ModTime()})
	}
	return blobs, nil
}
