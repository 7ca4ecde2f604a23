package web

import "strings"

// contentTypes maps file extensions to the Content-Type served for them.
var contentTypes = map[string]string{
	"html": "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"svg":  "image/svg+xml",
}

// fallbackContentType is served for any extension not in contentTypes.
const fallbackContentType = "text/plain"

// ContentType returns the Content-Type for the file at name, judged by the
// text after its last dot.
func ContentType(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return fallbackContentType
	}
	if ct, ok := contentTypes[name[i+1:]]; ok {
		return ct
	}
	return fallbackContentType
}
