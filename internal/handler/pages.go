package handler

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// PageTemplates parses the embedded list page templates; names are the file base names.
func PageTemplates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.tmpl")
}
