// Package storage persists run artifacts such as failure screenshots and
// downloaded invoices, locally and optionally in an S3 compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Store saves an artifact under a slash separated key and returns where it
// ended up
type Store interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
}

// Linker hands out time limited download links for stored keys
type Linker interface {
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Lister lists the keys stored below a prefix
type Lister interface {
	List(ctx context.Context, prefix string) ([]string, error)
}

// ErrNoLinker is returned by Tee.PresignedURL when no member can sign links
var ErrNoLinker = errors.New("no store hands out links")

// ContentType guesses the MIME type of an artifact from its key
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".txt":
		return "text/plain"
	case ".json":
		return "application/json"
	case ".prom":
		return "text/plain; version=0.0.4"
	default:
		return "application/octet-stream"
	}
}

// ScreenshotKey builds the key of a failure screenshot
func ScreenshotKey(prefix, runID, scenarioID string, attempt int, at time.Time) string {
	name := fmt.Sprintf("%s-attempt%d-%s.png", sanitize(scenarioID), attempt, at.UTC().Format("20060102T150405"))
	return path.Join(prefix, runID, name)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

// LocalStore writes artifacts below a directory
type LocalStore struct {
	dir string
}

var (
	_ Store  = (*LocalStore)(nil)
	_ Lister = (*LocalStore)(nil)
)

// NewLocalStore creates a store rooted at dir
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Save writes data to dir/key and returns the file path
func (s *LocalStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("saving artifact: key %q escapes the artifact directory", key)
	}
	p := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing artifact: %w", err)
	}
	return p, nil
}

// List returns the keys of all files below dir/prefix in lexical order. A
// missing prefix yields no keys.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	root := filepath.Join(s.dir, filepath.FromSlash(prefix))
	var keys []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dir, p)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}
	return keys, nil
}

// Tee saves to every store and joins their locations with ", ". It fails
// only when all stores fail.
type Tee []Store

var _ Linker = Tee(nil)

// Save implements Store
func (t Tee) Save(ctx context.Context, key string, data []byte) (string, error) {
	var locations []string
	var errs []error
	for _, s := range t {
		loc, err := s.Save(ctx, key, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		locations = append(locations, loc)
	}
	if len(locations) == 0 && len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return strings.Join(locations, ", "), nil
}

// PresignedURL asks the first member that is a Linker for a link
func (t Tee) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	for _, s := range t {
		if l, ok := s.(Linker); ok {
			return l.PresignedURL(ctx, key, expiry)
		}
	}
	return "", ErrNoLinker
}
