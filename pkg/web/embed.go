// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"

	"github.com/vlitzdev/vlitz/pkg/serverbase"
)

//go:embed static
var staticFS embed.FS

// DevStaticDir is served instead of the embedded files in dev mode, so the
// console page can be edited without rebuilding.
const DevStaticDir = "pkg/web/static"

func GetFileSystem() http.FileSystem {
	if serverbase.IsDev() {
		return http.Dir(DevStaticDir)
	}
	subFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(subFS)
}

// ServeIndexOrFile serves the requested file, falling back to index.html for
// unknown paths.
func ServeIndexOrFile(w http.ResponseWriter, r *http.Request, fs http.FileSystem) {
	urlPath := path.Clean(r.URL.Path)

	f, err := fs.Open(urlPath)
	if os.IsNotExist(err) {
		serveFile(w, r, fs, "index.html")
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if fi.IsDir() {
		serveFile(w, r, fs, path.Join(urlPath, "index.html"))
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f.(io.ReadSeeker))
}

func serveFile(w http.ResponseWriter, r *http.Request, fs http.FileSystem, name string) {
	f, err := fs.Open(name)
	if err != nil {
		http.Error(w, "Could not find "+name, http.StatusNotFound)
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f.(io.ReadSeeker))
}
