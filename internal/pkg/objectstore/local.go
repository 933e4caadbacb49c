package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PublicPrefix is the route local uploads are served under.
const PublicPrefix = "/uploads"

// Local writes objects below a directory on disk.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal returns a Local store rooted at dir. baseURL may be empty for site-relative URLs.
func NewLocal(dir, baseURL string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the root directory.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	key = NormalizeKey(key)
	if key == "" {
		return "", fmt.Errorf("invalid object key")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	written, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr == nil && size >= 0 && written != size {
		copyErr = fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	if copyErr != nil {
		_ = os.Remove(target)
		return "", copyErr
	}
	if closeErr != nil {
		return "", closeErr
	}
	return l.baseURL + joinURLPath(PublicPrefix, encodeKey(key)), nil
}
