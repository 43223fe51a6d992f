package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-faster/errors"
	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/remote-engine-mock/internal/stats"
)

// Format selects the snapshot encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ParseFormat accepts "yaml", "yml" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", errors.Errorf("unknown format %q (want yaml or json)", s)
	}
}

var (
	elapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).Width(10).Align(lipgloss.Right)
	eventStyle   = lipgloss.NewStyle().Bold(true).Width(14)
	connStyle    = eventStyle.Foreground(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#73F59F"})
	closeStyle   = eventStyle.Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"})
	detailStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatSnapshot writes snap in the given format.
func (f *Formatter) FormatSnapshot(snap *stats.Snapshot, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(f.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snap)
	case FormatYAML, "":
		encoder := yaml.NewEncoder(f.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(snap); err != nil {
			return errors.Wrap(err, "encode snapshot")
		}
		return encoder.Close()
	default:
		return errors.Errorf("unknown format %q", format)
	}
}

// FormatWorkers writes the worker list as JSON.
func (f *Formatter) FormatWorkers(workers []WorkerDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(workers)
}

// FormatHeader writes a styled section title.
func (f *Formatter) FormatHeader(title string) error {
	_, err := fmt.Fprintln(f.writer, headerStyle.Render(title))
	return err
}

// FormatEvent writes one styled timeline line.
func (f *Formatter) FormatEvent(e EventDTO) error {
	_, err := fmt.Fprintln(f.writer, RenderEvent(e))
	return err
}

// FormatTimeline writes every entry in order.
func (f *Formatter) FormatTimeline(entries []EventDTO) error {
	for _, e := range entries {
		if err := f.FormatEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// maxDetailWidth bounds the detail column in terminal cells.
const maxDetailWidth = 48

// RenderEvent renders e as "   +1.2ms connected  detail".
func RenderEvent(e EventDTO) string {
	style := eventStyle
	switch e.Event {
	case "connected":
		style = connStyle
	case "close":
		style = closeStyle
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top,
		elapsedStyle.Render("+"+e.Elapsed.Round(time.Microsecond).String()),
		" ",
		style.Render(e.Event),
	)
	if e.Detail != "" {
		line += " " + detailStyle.Render(runewidth.Truncate(e.Detail, maxDetailWidth, "..."))
	}
	return line
}
