package react

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplatesFS exposes the embedded module template.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
