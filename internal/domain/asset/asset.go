// Package asset defines the static asset resolution contract shared by the
// embedded and filesystem stores.
package asset

import (
	"context"
	"path"
	"strings"
)

// Entry is a resolved asset. It is never mutated after Resolve returns it.
type Entry struct {
	Path        string
	Body        []byte
	ContentType string
}

// Resolver looks up assets by slash-separated relative path.
//
// Resolve returns ErrNotFound for absent or rejected paths. Stores backed by
// external storage may also return an error wrapping ErrStorage.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Entry, error)
}

// CleanPath normalizes a request path into a key relative to the asset root.
// Leading separators are stripped. Paths that could escape the root (".."
// segments, backslashes, NUL bytes) and paths naming the root itself are
// rejected with ErrNotFound.
func CleanPath(name string) (string, error) {
	name = strings.TrimLeft(name, "/")
	if name == "" || strings.ContainsAny(name, "\\\x00") {
		return "", ErrNotFound
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", ErrNotFound
		}
	}
	cleaned := path.Clean(name)
	if cleaned == "." || strings.HasSuffix(name, "/") {
		return "", ErrNotFound
	}
	return cleaned, nil
}
