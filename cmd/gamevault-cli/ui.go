package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// UI writes human or JSON output for the CLI.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	jsonMode bool
	noColor  bool
}

// NewUI creates a UI. Color and animations are only used on a terminal.
func NewUI(out, errOut io.Writer, jsonMode bool) *UI {
	return &UI{
		out:      out,
		errOut:   errOut,
		jsonMode: jsonMode,
		noColor:  color.NoColor || !isTerminal(out),
	}
}

func (ui *UI) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if ui.noColor {
		c.DisableColor()
	}
	return c
}

// JSON writes v as indented JSON.
func (ui *UI) JSON(v interface{}) error {
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	ui.paint(color.FgGreen).Fprintf(ui.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	ui.paint(color.FgYellow).Fprintf(ui.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	ui.paint(color.FgCyan).Fprintf(ui.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	ui.paint(color.FgMagenta, color.Bold).Fprintf(ui.out, "━━━ %s ━━━\n", strings.ToUpper(title))
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	ui.paint(color.FgYellow).Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// Game prints one numbered result and its reasons.
func (ui *UI) Game(n int, title string, why []string) {
	if ui.jsonMode {
		return
	}
	ui.paint(color.Bold).Fprintf(ui.out, "%2d. %s\n", n, title)
	for _, w := range why {
		ui.paint(color.Faint).Fprintf(ui.out, "      %s\n", w)
	}
}

// Table prints rows under headers in aligned columns.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	head := ui.paint(color.FgCyan, color.Bold)
	for i, h := range headers {
		head.Fprintf(ui.out, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(ui.out)
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(ui.out, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(ui.out)
	}
}

// StartSpinner shows an indeterminate spinner on the error stream and
// returns the function that stops it.
func (ui *UI) StartSpinner(message string) func() {
	if ui.jsonMode || !isTerminal(ui.errOut) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(ui.errOut))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}

// Progress is a determinate progress bar. The zero value does nothing.
type Progress struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

// NewProgress creates a progress bar for total steps on the error stream.
func (ui *UI) NewProgress(name string, total int) *Progress {
	if ui.jsonMode || !isTerminal(ui.errOut) {
		return &Progress{}
	}

	p := mpb.New(mpb.WithOutput(ui.errOut), mpb.WithWidth(48))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 8}), " done"),
		),
	)
	return &Progress{p: p, bar: bar}
}

// Increment advances the bar by one.
func (p *Progress) Increment() {
	if p.bar != nil {
		p.bar.Increment()
	}
}

// Wait flushes the bar. Bars that did not complete are aborted.
func (p *Progress) Wait() {
	if p.p == nil {
		return
	}
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.p.Wait()
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
