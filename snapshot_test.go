package main

import "testing"

func TestParseSnapshotStructuredModel(t *testing.T) {
	snap, err := parseSnapshot([]byte(`{
		"model": {"id": "claude-opus-4", "display_name": "Opus"},
		"version": "1.2.3",
		"context_window": {
			"current_usage": {"input_tokens": 1000, "cache_creation_input_tokens": 200, "cache_read_input_tokens": 30},
			"context_window_size": 100000
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	m, ok := snap.Model.(StructuredModel)
	if !ok {
		t.Fatalf("expected StructuredModel, got %T", snap.Model)
	}
	if m.ID() != "claude-opus-4" || m.DisplayName() != "Opus" {
		t.Errorf("unexpected model %+v", m)
	}
	if snap.Version != "1.2.3" {
		t.Errorf("expected 1.2.3, got %s", snap.Version)
	}
	if snap.Context.CurrentUsageTokens != 1230 {
		t.Errorf("expected 1230 tokens, got %d", snap.Context.CurrentUsageTokens)
	}
	if snap.Context.WindowSizeTokens != 100000 {
		t.Errorf("expected 100000 window, got %d", snap.Context.WindowSizeTokens)
	}
}

func TestParseSnapshotBareModel(t *testing.T) {
	snap, err := parseSnapshot([]byte(`{"model": "claude-sonnet-4-5"}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Model.(BareModelName); !ok {
		t.Fatalf("expected BareModelName, got %T", snap.Model)
	}
	if snap.Model.ID() != "claude-sonnet-4-5" || snap.Model.DisplayName() != "claude-sonnet-4-5" {
		t.Errorf("unexpected model %v", snap.Model)
	}
}

func TestParseSnapshotDefaults(t *testing.T) {
	snap, err := parseSnapshot([]byte(`{"context_window": {"current_usage": null}}`))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Model.ID() != "unknown" || snap.Model.DisplayName() != "unknown" {
		t.Errorf("expected unknown model, got %v", snap.Model)
	}
	if snap.Version != "0.0.0" {
		t.Errorf("expected 0.0.0, got %s", snap.Version)
	}
	if snap.Context.WindowSizeTokens != defaultContextWindowSize {
		t.Errorf("expected default window, got %d", snap.Context.WindowSizeTokens)
	}
	if snap.Context.CurrentUsageTokens != 0 {
		t.Errorf("expected 0 tokens, got %d", snap.Context.CurrentUsageTokens)
	}
}

func TestParseSnapshotPartialModel(t *testing.T) {
	snap, err := parseSnapshot([]byte(`{"model": {"id": "claude-haiku"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Model.ID() != "claude-haiku" || snap.Model.DisplayName() != "unknown" {
		t.Errorf("unexpected model %v", snap.Model)
	}
}

func TestParseSnapshotMalformed(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"model":`, `[1,2,3]`, `"just a string"`, `null`} {
		if _, err := parseSnapshot([]byte(raw)); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}
