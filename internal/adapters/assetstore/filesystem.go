package assetstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"syscall"

	"github.com/okian/hearth/internal/domain/asset"
)

// Filesystem serves assets read from a directory on every lookup, so edits
// made while the server runs are visible on the next request.
type Filesystem struct {
	dir string
}

var _ asset.Resolver = (*Filesystem)(nil)

// NewFilesystem serves files below dir.
func NewFilesystem(dir string) *Filesystem {
	return &Filesystem{dir: dir}
}

// Dir returns the asset root.
func (f *Filesystem) Dir() string { return f.dir }

// Resolve reads name from disk. Reads are confined to the root directory;
// symlinks leading outside it fail.
func (f *Filesystem) Resolve(ctx context.Context, name string) (asset.Entry, error) {
	clean, err := asset.CleanPath(name)
	if err != nil {
		return asset.Entry{}, err
	}
	if err := ctx.Err(); err != nil {
		return asset.Entry{}, fmt.Errorf("%w: %w", asset.ErrStorage, err)
	}

	root, err := os.OpenRoot(f.dir)
	if err != nil {
		return asset.Entry{}, fmt.Errorf("%w: open root %q: %w", asset.ErrStorage, f.dir, err)
	}
	defer root.Close()

	file, err := root.Open(clean)
	if err != nil {
		if isMiss(err) {
			return asset.Entry{}, asset.ErrNotFound
		}
		return asset.Entry{}, fmt.Errorf("%w: open %q: %w", asset.ErrStorage, clean, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return asset.Entry{}, fmt.Errorf("%w: stat %q: %w", asset.ErrStorage, clean, err)
	}
	if info.IsDir() {
		return asset.Entry{}, asset.ErrNotFound
	}

	body, err := io.ReadAll(file)
	if err != nil {
		return asset.Entry{}, fmt.Errorf("%w: read %q: %w", asset.ErrStorage, clean, err)
	}
	return asset.Entry{
		Path:        clean,
		Body:        body,
		ContentType: asset.ContentType(clean),
	}, nil
}

// isMiss reports whether an open error means the path names nothing servable:
// a missing file, a file used as a directory, or a path os.Root refused
// because it leads outside the root. The refusal is the only open failure
// that does not carry an errno.
func isMiss(err error) bool {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return true
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		var errno syscall.Errno
		return !errors.As(pe.Err, &errno)
	}
	return false
}
