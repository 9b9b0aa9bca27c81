// Package store abstracts where image files live so the same lookup can run
// against a local directory tree or an object storage bucket.
package store

import (
	"context"
	"errors"
	"io"
	"time"
)

var ErrNotExist = errors.New("file does not exist")

// File is an open image ready to be streamed.
type File struct {
	io.ReadSeekCloser
	Name    string
	ModTime time.Time
	Size    int64
}

type Store interface {
	// FileExists and DirExists report false on any error, not only when the
	// path is missing.
	FileExists(ctx context.Context, p string) bool
	DirExists(ctx context.Context, p string) bool
	Open(ctx context.Context, p string) (*File, error)
}
