// ABOUTME: Embeds HTML templates into the binary using go:embed
// ABOUTME: Provides filesystem access to page templates

package webui

import "embed"

//go:embed templates/*.html
var templateFS embed.FS
