// Package presenter writes skillctl command output: status lines, aligned
// tables, skill results and JSON documents. Status lines go to stdout except
// warnings and errors, which go to stderr so that piped output stays clean.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	skilltypes "github.com/jingkaihe/skillctl/pkg/types/skills"
	"github.com/pkg/errors"
)

// ColorMode selects whether ANSI colors are emitted.
type ColorMode int

const (
	// ColorAuto lets fatih/color decide from the terminal
	ColorAuto ColorMode = iota
	// ColorAlways forces colors
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

var (
	successStyle = color.New(color.FgGreen, color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	headerStyle  = color.New(color.Bold)
	faintStyle   = color.New(color.Faint)
)

// Terminal writes human readable output.
type Terminal struct {
	out   io.Writer
	err   io.Writer
	quiet bool
}

// New returns a Terminal on stdout and stderr, honoring NO_COLOR and
// SKILLCTL_COLOR.
func New() *Terminal {
	return NewWithOptions(os.Stdout, os.Stderr, colorModeFromEnv())
}

// NewWithOptions returns a Terminal writing to out and errOut.
func NewWithOptions(out, errOut io.Writer, mode ColorMode) *Terminal {
	switch mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
	return &Terminal{out: out, err: errOut}
}

func colorModeFromEnv() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}
	switch os.Getenv("SKILLCTL_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	}
	return ColorAuto
}

// SetQuiet suppresses everything but errors and JSON documents.
func (t *Terminal) SetQuiet(quiet bool) {
	t.quiet = quiet
}

func (t *Terminal) status(w io.Writer, style *color.Color, symbol, message string) {
	if t.quiet {
		return
	}
	style.Fprintf(w, "%s %s\n", symbol, message)
}

// Error reports err, prefixed by what was being attempted.
func (t *Terminal) Error(err error, doing string) {
	if err == nil {
		return
	}
	if doing != "" {
		errorStyle.Fprintf(t.err, "[ERROR] %s: %v\n", doing, err)
		return
	}
	errorStyle.Fprintf(t.err, "[ERROR] %v\n", err)
}

// Success reports a completed operation.
func (t *Terminal) Success(message string) {
	t.status(t.out, successStyle, "✓", message)
}

// Warning reports a degraded but non-fatal outcome.
func (t *Terminal) Warning(message string) {
	t.status(t.err, warningStyle, "⚠", message)
}

// Info prints message as is.
func (t *Terminal) Info(message string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, message)
}

// Section prints an underlined header.
func (t *Terminal) Section(title string) {
	if t.quiet {
		return
	}
	headerStyle.Fprintf(t.out, "%s\n%s\n", title, strings.Repeat("-", len(title)))
}

// Separator prints a faint horizontal rule.
func (t *Terminal) Separator() {
	if t.quiet {
		return
	}
	faintStyle.Fprintln(t.out, strings.Repeat("-", 60))
}

// Table writes rows aligned under headers.
func (t *Terminal) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)

	underline := make([]string, len(headers))
	for i, h := range headers {
		underline[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(underline, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

// Result prints the outcome of one skill invocation, with its output
// payload indented below a successful status line.
func (t *Terminal) Result(result skilltypes.Result) {
	if !result.Succeeded() {
		errorStyle.Fprintf(t.out, "✗ %s %s: %s\n", result.Skill, result.Status, result.Error)
		return
	}

	successStyle.Fprintf(t.out, "✓ %s %s (%s)\n", result.Skill, result.Status, result.Duration.Round(time.Millisecond))
	if len(result.Output) == 0 {
		return
	}
	data, err := json.MarshalIndent(result.Output, "  ", "  ")
	if err != nil {
		fmt.Fprintf(t.out, "  %v\n", result.Output)
		return
	}
	fmt.Fprintf(t.out, "  %s\n", data)
}

// JSON writes v as an indented document. Quiet mode does not apply.
func (t *Terminal) JSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal output")
	}
	_, err = fmt.Fprintln(t.out, string(data))
	return err
}

var std = New()

// SetOutput points the package level functions at out and errOut without
// colors. The returned function restores the previous Terminal.
func SetOutput(out, errOut io.Writer) (restore func()) {
	prev := std
	std = NewWithOptions(out, errOut, ColorNever)
	return func() { std = prev }
}

// SetQuiet toggles quiet mode on the package level Terminal.
func SetQuiet(quiet bool) { std.SetQuiet(quiet) }

// Error reports err on the package level Terminal.
func Error(err error, doing string) { std.Error(err, doing) }

// Success reports a completed operation on the package level Terminal.
func Success(message string) { std.Success(message) }

// Warning reports a degraded outcome on the package level Terminal.
func Warning(message string) { std.Warning(message) }

// Info prints message on the package level Terminal.
func Info(message string) { std.Info(message) }

// Section prints a header on the package level Terminal.
func Section(title string) { std.Section(title) }

// Separator prints a rule on the package level Terminal.
func Separator() { std.Separator() }

// Table writes an aligned table on the package level Terminal.
func Table(headers []string, rows [][]string) { std.Table(headers, rows) }

// Result prints a skill result on the package level Terminal.
func Result(result skilltypes.Result) { std.Result(result) }

// JSON writes v on the package level Terminal.
func JSON(v any) error { return std.JSON(v) }
