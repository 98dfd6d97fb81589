package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var siteFS embed.FS

// FS returns the embedded site as an http.FileSystem rooted at static/.
func FS() http.FileSystem {
	sub, err := fs.Sub(siteFS, "static")
	if err != nil {
		return http.FS(siteFS)
	}
	return http.FS(sub)
}
