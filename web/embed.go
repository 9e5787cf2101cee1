// Package web embeds the page templates and static assets of the moim
// server so the binary runs without a working directory layout.
package web

import "embed"

// TemplatesFS holds the page and partial templates parsed at start-up.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet, the toast and share script and the
// placeholder image, served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
