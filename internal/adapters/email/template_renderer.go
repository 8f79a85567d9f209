package email

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	"text/template"
	"time"

	"eventservices/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"when": func(t time.Time) string { return t.UTC().Format("Mon 02 Jan 2006 15:04 MST") },
}

// Each email is three files: <name>_subject.txt, <name>.txt and <name>.html.
var (
	textTemplates = template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
)

type executor interface {
	Execute(w io.Writer, data any) error
}

type templateRenderer struct{}

// NewTemplateRenderer returns an EmailTemplateRenderer backed by the embedded templates folder.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{}
}

// Render executes the named email (e.g. "booking_created") and returns its subject, html and text bodies.
func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	parts := []struct {
		label string
		tmpl  executor
		out   *string
	}{
		{"subject", lookupText(templateName + "_subject.txt"), &subject},
		{"html", lookupHTML(templateName + ".html"), &htmlBody},
		{"text", lookupText(templateName + ".txt"), &textBody},
	}
	for _, p := range parts {
		if p.tmpl == nil {
			return "", "", "", fmt.Errorf("render %s: unknown email template %q", p.label, templateName)
		}
		var b strings.Builder
		if err := p.tmpl.Execute(&b, data); err != nil {
			return "", "", "", fmt.Errorf("render %s: %w", p.label, err)
		}
		*p.out = b.String()
	}
	return strings.TrimSpace(subject), htmlBody, textBody, nil
}

// The lookups return an untyped nil so the nil check in Render works.
func lookupText(name string) executor {
	if t := textTemplates.Lookup(name); t != nil {
		return t
	}
	return nil
}

func lookupHTML(name string) executor {
	if t := htmlTemplates.Lookup(name); t != nil {
		return t
	}
	return nil
}
