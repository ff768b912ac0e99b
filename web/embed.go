// Package web embeds the installable browser client served by the API.
package web

import (
	"embed"
	"io/fs"
)

// CacheVersion names the service worker cache. Bump it together with the
// CACHE_NAME constant in static/sw.js whenever an asset changes.
const CacheVersion = "overtime-calculator-v2.1"

//go:embed static
var static embed.FS

// Static returns the client assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
