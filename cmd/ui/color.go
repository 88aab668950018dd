package ui

import (
	"bytes"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"
)

var (
	addColor   = color.New(color.FgGreen)
	delColor   = color.New(color.FgRed)
	hunkColor  = color.New(color.FgCyan)
	metaColor  = color.New(color.Bold)
	blameColor = color.New(color.FgYellow)
)

// SetColorMode applies a color.ui value: "always", "never" or "auto".
// Auto leaves terminal detection to fatih/color and lipgloss.
func SetColorMode(mode string) {
	switch strings.ToLower(mode) {
	case "always", "true":
		color.NoColor = false
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "never", "false":
		color.NoColor = true
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// PatchWriter colors unified diff text line by line as it is written.
type PatchWriter struct {
	w       io.Writer
	pending []byte
}

func NewPatchWriter(w io.Writer) *PatchWriter { return &PatchWriter{w: w} }

func (p *PatchWriter) Write(b []byte) (int, error) {
	p.pending = append(p.pending, b...)
	for {
		i := bytes.IndexByte(p.pending, '\n')
		if i < 0 {
			return len(b), nil
		}
		if err := p.line(p.pending[:i+1]); err != nil {
			return 0, err
		}
		p.pending = p.pending[i+1:]
	}
}

// Flush writes a trailing line that had no newline.
func (p *PatchWriter) Flush() error {
	if len(p.pending) == 0 {
		return nil
	}
	err := p.line(p.pending)
	p.pending = nil
	return err
}

func (p *PatchWriter) line(l []byte) error {
	text := string(bytes.TrimSuffix(l, []byte("\n")))
	var c *color.Color
	switch {
	case strings.HasPrefix(text, "diff --git"), strings.HasPrefix(text, "index "),
		strings.HasPrefix(text, "--- "), strings.HasPrefix(text, "+++ "),
		strings.HasPrefix(text, "new file"), strings.HasPrefix(text, "deleted file"),
		strings.HasPrefix(text, "similarity"), strings.HasPrefix(text, "rename "),
		strings.HasPrefix(text, "copy "):
		c = metaColor
	case strings.HasPrefix(text, "@@"):
		c = hunkColor
	case strings.HasPrefix(text, "+"):
		c = addColor
	case strings.HasPrefix(text, "-"):
		c = delColor
	}
	if c == nil {
		_, err := p.w.Write(l)
		return err
	}
	if _, err := c.Fprint(p.w, text); err != nil {
		return err
	}
	if len(text) < len(l) {
		_, err := io.WriteString(p.w, "\n")
		return err
	}
	return nil
}

// Added and Deleted color stat counters.
func Added(s string) string   { return addColor.Sprint(s) }
func Deleted(s string) string { return delColor.Sprint(s) }

// BlameID colors the commit column of blame output.
func BlameID(s string) string { return blameColor.Sprint(s) }
