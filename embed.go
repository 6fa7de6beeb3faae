package cubepool

import (
	"embed"
	"io/fs"
)

// StaticFS holds the stylesheet served under /static/
//
//go:embed static/*.css
var StaticFS embed.FS

// Static returns the embedded static directory with the static/ prefix removed
func Static() fs.FS {
	sub, err := fs.Sub(StaticFS, "static")
	if err != nil {
		panic(err) // the directory is embedded at build time
	}
	return sub
}
