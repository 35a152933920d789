package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		// Only reachable if the embed directive above changes.
		panic("web: missing embedded directory " + dir)
	}
	return f
}

// StaticFS holds the stylesheet served under /static/.
func StaticFS() fs.FS { return sub("static") }

// TemplatesFS holds the page templates parsed by internal/web.
func TemplatesFS() fs.FS { return sub("templates") }
