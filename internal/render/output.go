package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"wrapped/internal/services"
)

// Format selects how recaps are written.
type Format string

const (
	FormatTerminal Format = "term"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists every supported Format.
var Formats = []Format{FormatTerminal, FormatMarkdown, FormatHTML, FormatJSON}

// ParseFormat maps a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTerminal, FormatMarkdown, FormatHTML, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "", "terminal":
		return FormatTerminal, nil
	}
	return "", fmt.Errorf("unknown format %q: must be one of %v", s, Formats)
}

// TerminalOptions tunes glamour rendering.
type TerminalOptions struct {
	// Style is a glamour standard style name. Empty picks one from the terminal.
	Style string
	// Width wraps text; 0 means 80 columns.
	Width int
}

// Terminal renders markdown for an ANSI terminal.
func Terminal(markdown string, opts TerminalOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render terminal output: %w", err)
	}
	return out, nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body{font-family:system-ui,sans-serif;max-width:42rem;margin:2rem auto;padding:0 1rem;background:#0f0f0f;color:#f5f5f5}
h1,h2{letter-spacing:.05em}
table{border-collapse:collapse}
td,th{padding:.25rem .75rem;border-bottom:1px solid #333}
hr{border:0;border-top:2px dashed #444;margin:2rem 0}
</style>
</head>
<body>
%s</body>
</html>
`

// HTML converts markdown into a standalone page.
func HTML(markdown, title string) (string, error) {
	var body bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("convert markdown to html: %w", err)
	}
	return fmt.Sprintf(pageTemplate, html.EscapeString(title), body.String()), nil
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// Write renders recaps in the requested format. Several recaps are joined
// into one document, or one JSON array.
func Write(w io.Writer, format Format, recaps []*services.Recap, opts Options, term TerminalOptions) error {
	if format == FormatJSON {
		if len(recaps) == 1 {
			return JSON(w, recaps[0])
		}
		return JSON(w, recaps)
	}

	parts := make([]string, len(recaps))
	for i, r := range recaps {
		parts[i] = Markdown(r, opts)
	}
	doc := strings.Join(parts, "\n---\n\n")

	var out string
	var err error
	switch format {
	case FormatMarkdown:
		out = doc
	case FormatHTML:
		title := "Wrapped"
		if len(recaps) == 1 && recaps[0] != nil {
			title = "Wrapped · " + recaps[0].Label
		}
		out, err = HTML(doc, title)
	default:
		out, err = Terminal(doc, term)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
