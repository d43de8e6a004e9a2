package ui

import (
	"embed"
	"io/fs"
)

//go:embed assets
var embedded embed.FS

// Assets returns the static files served under /assets/
func Assets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}
