package panel

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path"
)

//go:embed web/*
var content embed.FS

// Assets returns the panel files: dir when it names an existing directory,
// otherwise the copy built into the binary. fromDisk reports which.
func Assets(dir string) (assets fs.FS, fromDisk bool) {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return os.DirFS(dir), true
		}
	}
	web, err := fs.Sub(content, "web")
	if err != nil {
		// "web" is a literal embedded directory.
		panic("panel: embedded assets missing: " + err.Error())
	}
	return web, false
}

// Handler serves the panel from Assets(dir). Paths that name no file get
// index.html, and nothing is cached so edits on disk show on reload.
func Handler(dir string) http.Handler {
	assets, _ := Assets(dir)
	files := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")

		name := path.Clean(r.URL.Path)
		if name != "/" && name != "." {
			if _, err := fs.Stat(assets, name[1:]); err == nil {
				files.ServeHTTP(w, r)
				return
			}
		}
		r.URL.Path = "/"
		files.ServeHTTP(w, r)
	})
}
