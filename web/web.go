// Package web carries the embedded review UI bundle.
package web

import "embed"

//go:embed static
var StaticFS embed.FS
