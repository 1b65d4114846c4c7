// Package web holds the dashboard page of the array monitor.
package web

import (
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

// Environment variables that make the monitor read its page from disk.
const (
	// EnvAssets names a directory that replaces the embedded page.
	EnvAssets = "AIESIM_MONITOR_ASSETS"

	// EnvDev, when true, serves the page from this package's source tree.
	EnvDev = "AIESIM_MONITOR_DEV"
)

//go:embed dist/*
var dist embed.FS

// Assets returns the dashboard files, embedded in the binary unless one of
// EnvAssets or EnvDev points to a directory on disk.
func Assets() http.FileSystem {
	files, _ := assets()
	return files
}

// Handler serves the dashboard. Files read from disk are sent with
// caching disabled so that edits show on reload.
func Handler() http.Handler {
	files, fromDisk := assets()
	server := http.FileServer(files)

	if !fromDisk {
		return server
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		server.ServeHTTP(w, r)
	})
}

func assets() (files http.FileSystem, fromDisk bool) {
	if dir := assetDir(); dir != "" {
		slog.Info("serving the monitoring page from disk", "dir", dir)
		return http.Dir(dir), true
	}

	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub), false
}

func assetDir() string {
	if dir := os.Getenv(EnvAssets); dir != "" {
		return dir
	}

	dev, err := strconv.ParseBool(os.Getenv(EnvDev))
	if err != nil || !dev {
		return ""
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the sources of the monitoring page")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}
