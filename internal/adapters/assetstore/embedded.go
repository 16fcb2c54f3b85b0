// Package assetstore implements the asset.Resolver strategies: an embedded
// store baked into the binary and a filesystem store read live from disk.
package assetstore

import (
	"context"
	"io/fs"

	"github.com/okian/hearth/internal/domain/asset"
)

// Embedded serves assets from a read-only filesystem compiled into the binary.
type Embedded struct {
	fsys fs.FS
}

var _ asset.Resolver = (*Embedded)(nil)

// NewEmbedded wraps fsys, typically an embed.FS sub-tree.
func NewEmbedded(fsys fs.FS) *Embedded {
	return &Embedded{fsys: fsys}
}

// Resolve returns the embedded bytes for name. The only possible failure is asset.ErrNotFound.
func (e *Embedded) Resolve(_ context.Context, name string) (asset.Entry, error) {
	clean, err := asset.CleanPath(name)
	if err != nil {
		return asset.Entry{}, err
	}
	if e.fsys == nil || !fs.ValidPath(clean) {
		return asset.Entry{}, asset.ErrNotFound
	}
	body, err := fs.ReadFile(e.fsys, clean)
	if err != nil {
		return asset.Entry{}, asset.ErrNotFound
	}
	return asset.Entry{
		Path:        clean,
		Body:        body,
		ContentType: asset.ContentType(clean),
	}, nil
}
