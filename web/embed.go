// Package web embeds the HTML templates and static assets served by
// the application.
package web

import "embed"

// Templates holds the layout, page and partial templates.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static holds the stylesheet and other public assets.
//
//go:embed static/**/*
var Static embed.FS
