package web

import "embed"

// StaticFS holds the embedded checkout page assets. They are served when no
// static directory is configured.
//
//go:embed static/*
var StaticFS embed.FS
