package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Tone is a semantic color; the palette decides the actual RGB value.
type Tone int

const (
	ToneNominal Tone = iota
	ToneWarning
	ToneAlert
	ToneText
	ToneMuted
)

// pctTone maps a utilization percentage to a tone.
func pctTone(pct int) Tone {
	switch {
	case pct > 80:
		return ToneAlert
	case pct > 60:
		return ToneWarning
	}
	return ToneNominal
}

// modelFamilies is checked in order; the first substring match wins.
var modelFamilies = []struct {
	name string
	tone Tone
}{
	{"opus", ToneNominal},
	{"sonnet", ToneWarning},
	{"haiku", ToneAlert},
}

func modelTone(id string) Tone {
	id = strings.ToLower(id)
	for _, f := range modelFamilies {
		if strings.Contains(id, f.name) {
			return f.tone
		}
	}
	return ToneText
}

func (p Palette) hex(t Tone) string {
	switch t {
	case ToneNominal:
		return p.Green
	case ToneWarning:
		return p.Yellow
	case ToneAlert:
		return p.Red
	case ToneMuted:
		return p.Gray
	}
	return p.Text
}

// theme paints text with 24-bit foreground colors. The profile is forced to
// TrueColor: stdout is a pipe to the host, so detection would strip colors.
type theme struct {
	renderer *lipgloss.Renderer
	palette  Palette
}

func newTheme(w io.Writer, p Palette) *theme {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.TrueColor)
	return &theme{renderer: r, palette: p}
}

func (t *theme) paint(tone Tone, s string) string {
	if s == "" {
		return ""
	}
	return t.renderer.NewStyle().
		Foreground(lipgloss.Color(t.palette.hex(tone))).
		Render(s)
}

// contextPercent is usage relative to the autocompact threshold, which the
// host puts at 77.5% of the nominal window.
func contextPercent(cw ContextWindow) int {
	threshold := cw.WindowSizeTokens * 775 / 1000
	if threshold <= 0 {
		return 0
	}
	return min(cw.CurrentUsageTokens*100/threshold, 100)
}

// barCells splits width cells into filled and empty for pct.
func barCells(pct, width int) (filled, empty int) {
	if width <= 0 {
		return 0, 0
	}
	filled = min(max(pct*width/100, 0), width)
	return filled, width - filled
}

const (
	barFilled = "▓"
	barEmpty  = "░"
)

func (t *theme) bar(pct, width int) string {
	filled, empty := barCells(pct, width)
	return t.paint(pctTone(pct), strings.Repeat(barFilled, filled)) +
		t.paint(ToneMuted, strings.Repeat(barEmpty, empty))
}

// formatCountdown renders the time left until resetsAt, e.g. "2h05m" or
// "42m". It reports false when the timestamp is unparseable or not in the
// future.
func formatCountdown(resetsAt string, now time.Time) (string, bool) {
	if resetsAt == "" {
		return "", false
	}
	t, err := parseResetTime(resetsAt, now.Location())
	if err != nil {
		return "", false
	}

	until := t.Sub(now)
	if until <= 0 {
		return "", false
	}

	total := int(until / time.Minute)
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%dh%02dm", hours, minutes), true
	}
	return fmt.Sprintf("%dm", minutes), true
}

// parseResetTime accepts RFC 3339 with or without fractional seconds. A
// timestamp without a zone is read in loc.
func parseResetTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, loc)
}
