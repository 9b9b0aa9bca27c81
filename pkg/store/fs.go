package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore reads images from the local filesystem.
type FileStore struct{}

func NewFileStore() *FileStore {
	return &FileStore{}
}

func (s *FileStore) FileExists(_ context.Context, p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (s *FileStore) DirExists(_ context.Context, p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func (s *FileStore) Open(_ context.Context, p string) (*File, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, p)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotExist, p)
	}
	return &File{
		ReadSeekCloser: f,
		Name:           filepath.Base(p),
		ModTime:        info.ModTime(),
		Size:           info.Size(),
	}, nil
}
