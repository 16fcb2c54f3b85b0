// Package site holds the content compiled into the binary: the default
// templates and the static assets served in embedded mode.
package site

import (
	"embed"
	"io/fs"
)

// The all: prefix keeps files starting with "_" such as _index.html.
//
//go:embed all:templates static/assets
var content embed.FS

// Assets returns the embedded asset tree rooted at static/assets.
func Assets() fs.FS {
	return sub("static/assets")
}

// Templates returns the embedded default templates.
func Templates() fs.FS {
	return sub("templates")
}

func sub(dir string) fs.FS {
	s, err := fs.Sub(content, dir)
	if err != nil {
		// Only reachable if the embed directive and dir disagree.
		panic(err)
	}
	return s
}
