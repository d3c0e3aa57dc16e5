package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/fsnotify/fsnotify"
)

func newTestWatchModel(t *testing.T, input string) watchModel {
	t.Helper()
	sl, _ := newTestStatusline(t, newMemCache(), &fakeTokens{token: "tok"}, &fakeFetcher{resp: fullResponse()})
	return newWatchModel(sl, input, time.Minute, DefaultConfig().Display)
}

func TestWatchRenderCmd(t *testing.T) {
	m := newTestWatchModel(t, "")

	msg, ok := m.renderCmd()().(renderedMsg)
	if !ok {
		t.Fatal("expected renderedMsg")
	}
	if msg.err != nil {
		t.Fatalf("unexpected error %v", msg.err)
	}
	if got := ansi.Strip(msg.line); !strings.HasPrefix(got, "opus │ vdev │ context: 51%") {
		t.Errorf("unexpected line %q", got)
	}
	if msg.quotas.Source != SourceAPI {
		t.Errorf("expected api source, got %s", msg.quotas.Source)
	}
}

func TestWatchRenderCmdBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	os.WriteFile(path, []byte("nope"), 0o600)
	m := newTestWatchModel(t, path)

	msg := m.renderCmd()().(renderedMsg)
	if msg.err == nil {
		t.Error("expected error for malformed snapshot")
	}

	m = newTestWatchModel(t, filepath.Join(t.TempDir(), "missing.json"))
	if msg := m.renderCmd()().(renderedMsg); msg.err == nil {
		t.Error("expected error for missing snapshot")
	}
}

func TestWatchUpdate(t *testing.T) {
	m := newTestWatchModel(t, "")
	session := QuotaReading{Percentage: 42}

	updated, _ := m.Update(renderedMsg{
		line:   "line",
		quotas: Quotas{Session: &session, Source: SourceCache},
		at:     time.Now(),
	})
	m = updated.(watchModel)
	if m.loading {
		t.Error("expected loading to stop")
	}
	if m.line != "line" || m.quotas.Session == nil {
		t.Errorf("unexpected model state %+v", m.quotas)
	}

	view := m.View()
	for _, want := range []string{"Session (5h)", "42%", "Weekly (7d)", "unavailable", "source: cache"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if !updated.(watchModel).loading || cmd == nil {
		t.Error("expected r to start a redraw")
	}
}

func TestWatchUpdateError(t *testing.T) {
	m := newTestWatchModel(t, "")
	updated, _ := m.Update(renderedMsg{err: errors.New("snapshot is not valid JSON")})
	if view := updated.(watchModel).View(); !strings.Contains(view, "snapshot is not valid JSON") {
		t.Errorf("expected error in view: %q", view)
	}
}

func TestWatchQuit(t *testing.T) {
	m := newTestWatchModel(t, "")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected quit")
	}
}

func TestWatchSnapshotChangedWhileLoading(t *testing.T) {
	m := newTestWatchModel(t, "")
	_, cmd := m.Update(snapshotChangedMsg{})
	if cmd != nil {
		t.Error("expected change to be ignored while a render is in flight")
	}
}

func TestSnapshotEvent(t *testing.T) {
	path := "/tmp/x/snap.json"
	tests := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: path, Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Rename}, true},
		{fsnotify.Event{Name: path, Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/tmp/x/other.json", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		if got := snapshotEvent(tt.event, path); got != tt.want {
			t.Errorf("snapshotEvent(%v) = %v, want %v", tt.event, got, tt.want)
		}
	}
}

func TestReadSnapshotSample(t *testing.T) {
	raw, err := readSnapshot("")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := parseSnapshot(raw); err != nil {
		t.Errorf("sample snapshot does not parse: %v", err)
	}
	var buf bytes.Buffer
	buf.Write(raw)
	if !strings.Contains(buf.String(), "claude-opus-4") {
		t.Error("expected sample to use an opus model")
	}
}
