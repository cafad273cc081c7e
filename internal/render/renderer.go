// Package render draws variables as sparklines below whatever the program
// itself prints.
//
// Every frame first erases the previous one, then flushes intercepted
// program output so it lands where the old chart was, then writes the new
// chart. The chart therefore always sits at the bottom of the terminal and
// program output scrolls above it.
package render

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/Iron-Ham/sparcli/internal/controller"
	"github.com/Iron-Ham/sparcli/internal/errors"
	"github.com/Iron-Ham/sparcli/internal/logging"
	"github.com/Iron-Ham/sparcli/internal/series"
	"github.com/Iron-Ham/sparcli/internal/util"
)

// Output is the surface the renderer draws on, normally a
// capture.MultiCapture.
type Output interface {
	Start() error
	Close() error
	Flush() error
	WriteOut(data []byte) error
}

// Options configures a Renderer.
type Options struct {
	// Width is the terminal width in columns. Zero means measure stdout
	// when the renderer starts; a negative value disables width limits.
	Width int
	// MaxNameWidth truncates long variable names. Zero disables it.
	MaxNameWidth int
	// NameStyle is applied to the padded variable name.
	NameStyle lipgloss.Style

	Logger *logging.Logger
}

// DefaultNameStyle renders names in bold.
func DefaultNameStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

// Renderer implements controller.Renderer.
type Renderer struct {
	out    Output
	opts   Options
	logger *logging.Logger

	width  int
	height int
}

// New creates a Renderer drawing on out.
func New(out Output, opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Renderer{
		out:    out,
		opts:   opts,
		logger: opts.Logger.WithComponent("render"),
		width:  opts.Width,
	}
}

// Start measures the terminal and starts the output. The measurement has
// to happen first: once stdout is captured it is a pipe and has no size.
func (r *Renderer) Start() error {
	if r.opts.Width == 0 {
		r.width = terminalWidth()
		r.logger.Debug("measured terminal", "width", r.width)
	}
	return r.out.Start()
}

// Close stops the output, restoring the real streams.
func (r *Renderer) Close() error {
	return r.out.Close()
}

// Height returns the number of lines of the last frame.
func (r *Renderer) Height() int {
	return r.height
}

// Draw replaces the previous frame with one line per variable.
func (r *Renderer) Draw(vars []controller.Snapshot) error {
	if err := r.erase(); err != nil {
		return err
	}
	if err := r.out.Flush(); err != nil {
		return errors.Wrap(err, "flush captured output")
	}

	frame := r.Frame(vars)
	r.height = len(vars)
	if frame == "" {
		return nil
	}
	if err := r.out.WriteOut([]byte(frame)); err != nil {
		return errors.Wrap(err, "write frame")
	}
	return nil
}

// Clear erases the previous frame and flushes pending output.
func (r *Renderer) Clear() error {
	if err := r.erase(); err != nil {
		return err
	}
	r.height = 0
	if err := r.out.Flush(); err != nil {
		return errors.Wrap(err, "flush captured output")
	}
	return nil
}

func (r *Renderer) erase() error {
	seq := EraseLines(r.height)
	if seq == "" {
		return nil
	}
	if err := r.out.WriteOut([]byte(seq)); err != nil {
		return errors.Wrap(err, "erase frame")
	}
	return nil
}

// EraseLines returns the sequence that moves the cursor up over n lines,
// clearing each of them.
func EraseLines(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(ansi.CursorUp(1)+ansi.EraseEntireLine, n)
}

// Frame renders vars as "<name padded to the widest name> <sparkline>\n"
// lines.
func (r *Renderer) Frame(vars []controller.Snapshot) string {
	if len(vars) == 0 {
		return ""
	}

	names := make([]string, len(vars))
	nameWidth := 0
	for i, v := range vars {
		names[i] = util.TruncateString(v.Name, r.opts.MaxNameWidth)
		nameWidth = max(nameWidth, util.Width(names[i]))
	}

	// One column stays free so a full-width line never wraps, which would
	// throw off the line count used to erase the frame.
	budget := -1
	if r.width > 0 {
		budget = max(0, r.width-nameWidth-2)
	}

	var b strings.Builder
	for i, v := range vars {
		spark := []rune(Sparkline(series.Normalize(v.Values)))
		if budget >= 0 && len(spark) > budget {
			spark = spark[len(spark)-budget:]
		}
		line := r.opts.NameStyle.Render(util.PadRight(names[i], nameWidth)) + " " + string(spark)
		if r.width > 0 {
			line = util.TruncateANSI(line, r.width-1)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return -1
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return -1
	}
	return w
}

var _ controller.Renderer = (*Renderer)(nil)
