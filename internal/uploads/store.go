// Package uploads stores member photos on local disk and resolves stored
// references back to files confined to the uploads directory.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/static/uploads/"

// ErrUnsupportedImage is returned when an upload is not a recognized image.
var ErrUnsupportedImage = errors.New("unsupported image type")

// ErrFileTooLarge is returned when an upload exceeds the size limit.
var ErrFileTooLarge = errors.New("file too large")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// unsafeNameChars matches anything outside ASCII letters, digits, dot,
// dash, underscore and the Arabic block.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_\x{0600}-\x{06FF}]`)

// RemoveStatus is the outcome of an advisory file removal.
type RemoveStatus int

const (
	Removed RemoveStatus = iota
	NotFound
	// Rejected means the reference does not point inside the uploads dir.
	Rejected
	Failed
)

func (s RemoveStatus) String() string {
	switch s {
	case Removed:
		return "removed"
	case NotFound:
		return "not_found"
	case Rejected:
		return "rejected"
	default:
		return "failed"
	}
}

// RemoveResult reports what Remove did. Err is set only for Failed.
type RemoveResult struct {
	Status RemoveStatus
	Path   string
	Err    error
}

// Store is a directory of uploaded files.
type Store struct {
	dir     string
	maxSize int64
}

// New creates the uploads directory if needed.
func New(dir string, maxSize int64) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &Store{dir: abs, maxSize: maxSize}, nil
}

// Dir returns the absolute uploads directory.
func (s *Store) Dir() string { return s.dir }

// SavePhoto writes an image under a collision-free name and returns its
// public URL.
func (s *Store) SavePhoto(originalName string, r io.Reader) (string, error) {
	limit := s.maxSize
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}

	name := SafeName(originalName)
	if filepath.Ext(name) == "" {
		name += ext
	}
	name = uuid.New().String()[:8] + "-" + name

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return PublicPrefix + name, nil
}

// SafeName reduces a client file name to a safe base name.
func SafeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = unsafeNameChars.ReplaceAllString(base, "_")
	if strings.Trim(base, "._") == "" {
		return "photo"
	}
	return base
}

// LocalPath resolves a stored reference to a file inside the uploads
// directory. Absolute URLs, /static/uploads/... and /uploads/... are
// accepted; anything resolving outside the directory is rejected.
func (s *Store) LocalPath(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	p := ref
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", false
		}
		p = u.Path
	}

	p = strings.TrimPrefix(p, "/static/")
	p = strings.TrimPrefix(p, "/")
	rel, ok := strings.CutPrefix(p, "uploads/")
	if !ok || rel == "" {
		return "", false
	}

	resolved := filepath.Join(s.dir, filepath.FromSlash(rel))
	if !strings.HasPrefix(resolved, s.dir+string(filepath.Separator)) {
		return "", false
	}
	return resolved, true
}

// Remove deletes the file behind ref. It never panics or returns an
// error; the result says what happened.
func (s *Store) Remove(ref string) RemoveResult {
	p, ok := s.LocalPath(ref)
	if !ok {
		return RemoveResult{Status: Rejected}
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RemoveResult{Status: NotFound, Path: p}
		}
		return RemoveResult{Status: Failed, Path: p, Err: err}
	}
	return RemoveResult{Status: Removed, Path: p}
}
