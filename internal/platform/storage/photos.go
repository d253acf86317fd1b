package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image exceeds size limit")
	ErrOutsideRoot     = errors.New("path is outside the storage root")
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

// Photos keeps profile images under <root>/profiles. Paths handed back to
// callers are relative to root.
type Photos struct {
	root     string
	maxBytes int64
}

func NewPhotos(root string, maxBytes int64) (*Photos, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "profiles"), 0o755); err != nil {
		return nil, fmt.Errorf("create profiles dir: %w", err)
	}
	return &Photos{root: abs, maxBytes: maxBytes}, nil
}

func (p *Photos) Save(name, ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !imageExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	rel := filepath.ToSlash(filepath.Join("profiles", sanitizeName(name)+ext))
	target, err := p.resolve(rel)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	limit := p.maxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	n, err := io.Copy(tmp, io.LimitReader(r, limit+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}
	if n > limit {
		return "", ErrTooLarge
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", err
	}
	return rel, nil
}

func (p *Photos) Delete(path string) error {
	target, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (p *Photos) Open(path string) (*os.File, error) {
	target, err := p.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(target)
}

func (p *Photos) resolve(rel string) (string, error) {
	target := filepath.Join(p.root, filepath.FromSlash(rel))
	within, err := filepath.Rel(p.root, target)
	if err != nil || within == "." || strings.HasPrefix(within, "..") {
		return "", ErrOutsideRoot
	}
	return target, nil
}

// sanitizeName replaces anything outside [A-Za-z0-9_-] with an underscore.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "photo"
	}
	return b.String()
}

// ContentType maps a stored photo path to its MIME type.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	}
	return "application/octet-stream"
}
