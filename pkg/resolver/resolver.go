// Package resolver maps a logical image name to a stored file by trying each
// supported extension in priority order.
package resolver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/models"
	"github.com/nedaZarei/Cloud_ImageProcessingService/ImageByName/pkg/store"
)

const (
	primaryType = "primary"
	primaryStem = "folder"
	fallbackDir = "all"
)

type NotFoundError struct {
	Kind models.ImageKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s image not found: %s", e.Kind, e.Name)
}

type Resolver struct {
	store      store.Store
	extensions []string
}

func New(s store.Store, extensions []string) *Resolver {
	exts := make([]string, len(extensions))
	copy(exts, extensions)
	return &Resolver{store: s, extensions: exts}
}

// Candidates returns dir/stem+ext for every extension, in priority order.
func (r *Resolver) Candidates(dir, stem string) []string {
	paths := make([]string, 0, len(r.extensions))
	for _, ext := range r.extensions {
		paths = append(paths, filepath.Join(dir, stem+ext))
	}
	return paths
}

func (r *Resolver) firstExisting(ctx context.Context, paths []string) (string, bool) {
	for _, p := range paths {
		if r.store.FileExists(ctx, p) {
			return p, true
		}
	}
	return "", false
}

// ResolveGeneral never fails: when no candidate exists it returns the first
// one anyway and leaves the miss to whatever opens the file.
func (r *Resolver) ResolveGeneral(ctx context.Context, root, name, imageType string) string {
	stem := imageType
	if strings.EqualFold(imageType, primaryType) {
		stem = primaryStem
	}
	paths := r.Candidates(filepath.Join(root, name), stem)
	if p, ok := r.firstExisting(ctx, paths); ok {
		return p
	}
	if len(paths) == 0 {
		return filepath.Join(root, name, stem)
	}
	return paths[0]
}

// ResolveThemed searches root/theme first and root/all second. Folders that
// do not exist are skipped.
func (r *Resolver) ResolveThemed(ctx context.Context, kind models.ImageKind, root, theme, name string) (string, error) {
	for _, dir := range []string{filepath.Join(root, theme), filepath.Join(root, fallbackDir)} {
		if !r.store.DirExists(ctx, dir) {
			continue
		}
		if p, ok := r.firstExisting(ctx, r.Candidates(dir, name)); ok {
			return p, nil
		}
	}
	return "", &NotFoundError{Kind: kind, Name: name}
}
