package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 10 * time.Millisecond

// File is a Store persisted as a single JSON object. Every operation
// re-reads the file under an exclusive flock so separate curaq processes
// (a save trigger and an open popup, say) observe each other's writes.
type File struct {
	path string
	lock *flock.Flock
}

// OpenFile returns a File store at path, creating parent directories.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &File{path: path, lock: flock.New(path + ".lock")}, nil
}

func (f *File) Get(ctx context.Context, key string) (string, error) {
	var (
		value string
		found bool
	)
	err := f.withLock(ctx, func() error {
		values, err := f.load()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.withLock(ctx, func() error {
		values, err := f.load()
		if err != nil {
			return err
		}
		values[key] = value
		return f.save(values)
	})
}

func (f *File) Remove(ctx context.Context, key string) error {
	return f.withLock(ctx, func() error {
		values, err := f.load()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return f.save(values)
	})
}

func (f *File) Close() error {
	return f.lock.Close()
}

func (f *File) withLock(ctx context.Context, fn func() error) error {
	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("locking %s: %w", f.path, err)
	}
	if !locked {
		return fmt.Errorf("locking %s: lock not acquired", f.path)
	}
	defer f.lock.Unlock()
	return fn()
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing store: %w", err)
	}
	return values, nil
}

// save writes the store atomically via a temp file.
func (f *File) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
