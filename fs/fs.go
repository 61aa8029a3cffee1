// Package appfs embeds the files the binaries need at runtime: SQL migrations, e-mail templates
// and the common passwords list.
package appfs

import "embed"

//go:embed migrations assets
var FS embed.FS
