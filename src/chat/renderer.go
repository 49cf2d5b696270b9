package chat

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

// Renderer converts structured text with lightweight markup to
// terminal-formatted output.
type Renderer interface {
	Render(markdown string) error
}

const renderWidth = 100

// GlamourRenderer renders markdown with terminal styling, falling back to
// hard-wrapped plain text when the styled renderer cannot be built.
type GlamourRenderer struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

var _ Renderer = (*GlamourRenderer)(nil)

// NewGlamourRenderer creates a renderer writing to out.
func NewGlamourRenderer(out io.Writer) *GlamourRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(renderWidth),
	)
	if err != nil {
		renderer = nil
	}
	return &GlamourRenderer{out: out, renderer: renderer}
}

// Render writes the formatted text to the output.
func (r *GlamourRenderer) Render(markdown string) error {
	if r.renderer == nil {
		_, err := fmt.Fprintln(r.out, ansi.Hardwrap(markdown, renderWidth, true))
		return err
	}

	rendered, err := r.renderer.Render(markdown)
	if err != nil {
		_, werr := fmt.Fprintln(r.out, ansi.Hardwrap(markdown, renderWidth, true))
		return werr
	}
	_, err = fmt.Fprint(r.out, rendered)
	return err
}

// nopRenderer discards output; used when no terminal is attached.
type nopRenderer struct{}

func (nopRenderer) Render(string) error { return nil }

// NopRenderer returns a renderer that discards everything.
func NopRenderer() Renderer { return nopRenderer{} }
