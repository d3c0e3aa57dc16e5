package main

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// lineRenderer builds the status line from a snapshot and resolved quotas.
type lineRenderer struct {
	theme   *theme
	display DisplayConfig
	now     func() time.Time
}

func newLineRenderer(w io.Writer, display DisplayConfig) *lineRenderer {
	return &lineRenderer{
		theme:   newTheme(w, display.Palette),
		display: display,
		now:     time.Now,
	}
}

func (lr *lineRenderer) render(snap Snapshot, q Quotas) string {
	t := lr.theme
	parts := []string{
		t.paint(modelTone(snap.Model.ID()), shortModelName(snap.Model)),
		t.paint(ToneText, "v"+snap.Version),
	}

	pct := contextPercent(snap.Context)
	parts = append(parts, t.paint(ToneText, "context: ")+t.paint(pctTone(pct), strconv.Itoa(pct)+"%"))

	if q.Session != nil {
		parts = append(parts, lr.quotaSegment("session", *q.Session, true))
	}
	if q.Weekly != nil {
		parts = append(parts, lr.quotaSegment("weekly", *q.Weekly, lr.display.WeeklyReset))
	}

	return strings.Join(parts, " "+t.paint(ToneMuted, "│")+" ")
}

func (lr *lineRenderer) quotaSegment(label string, r QuotaReading, withReset bool) string {
	t := lr.theme
	var b strings.Builder
	b.WriteString(t.paint(ToneText, label+": "))
	b.WriteString(t.paint(pctTone(r.Percentage), strconv.Itoa(r.Percentage)+"%"))
	b.WriteString(" " + t.paint(ToneMuted, "["))
	b.WriteString(t.bar(r.Percentage, lr.display.BarWidth))
	b.WriteString(t.paint(ToneMuted, "]"))
	if withReset {
		if countdown, ok := formatCountdown(r.ResetsAt, lr.now()); ok {
			b.WriteString(" " + t.paint(ToneText, "reset: ") + t.paint(ToneNominal, countdown))
		}
	}
	return b.String()
}

// statusline wires one render: parse stdin, resolve quotas, write the line.
type statusline struct {
	resolver *Resolver
	renderer *lineRenderer
}

// run writes nothing when the snapshot is malformed. It has no error path;
// every failure only drops segments from the line.
func (s *statusline) run(ctx context.Context, in io.Reader, out io.Writer) {
	raw, err := io.ReadAll(in)
	if err != nil {
		log.WithError(err).Warn("statusline: failed to read stdin")
		return
	}
	line, _, err := s.renderSnapshot(ctx, raw)
	if err != nil {
		log.WithError(err).Warn("statusline: ignoring snapshot")
		return
	}
	if _, err := io.WriteString(out, line); err != nil {
		log.WithError(err).Warn("statusline: failed to write line")
	}
}

// renderSnapshot parses raw, resolves quotas and returns the line. The error
// is only about the snapshot itself.
func (s *statusline) renderSnapshot(ctx context.Context, raw []byte) (string, Quotas, error) {
	snap, err := parseSnapshot(raw)
	if err != nil {
		return "", Quotas{}, err
	}
	q := s.resolver.Resolve(ctx)
	log.Debugf("statusline: quotas from %s", q.Source)
	return s.renderer.render(snap, q), q, nil
}
