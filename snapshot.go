package main

import (
	"fmt"

	"github.com/tidwall/gjson"
)

const defaultContextWindowSize = 200000

// parseSnapshot decodes the host's stdin document. The model field is
// resolved here into either a StructuredModel or a BareModelName.
func parseSnapshot(raw []byte) (Snapshot, error) {
	if !gjson.ValidBytes(raw) {
		return Snapshot{}, fmt.Errorf("snapshot is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Snapshot{}, fmt.Errorf("snapshot is not a JSON object")
	}

	snap := Snapshot{
		Model:   parseModel(root.Get("model")),
		Version: stringOr(root.Get("version"), "0.0.0"),
	}

	cw := root.Get("context_window")
	snap.Context.WindowSizeTokens = defaultContextWindowSize
	if size := cw.Get("context_window_size"); size.Type == gjson.Number {
		snap.Context.WindowSizeTokens = int(size.Int())
	}
	if usage := cw.Get("current_usage"); usage.IsObject() {
		snap.Context.CurrentUsageTokens = int(usage.Get("input_tokens").Int() +
			usage.Get("cache_creation_input_tokens").Int() +
			usage.Get("cache_read_input_tokens").Int())
	}

	return snap, nil
}

func parseModel(v gjson.Result) ModelInfo {
	switch {
	case v.IsObject():
		return StructuredModel{
			id:          stringOr(v.Get("id"), "unknown"),
			displayName: stringOr(v.Get("display_name"), "unknown"),
		}
	case v.Exists() && v.Type != gjson.Null:
		return BareModelName(v.String())
	}
	return StructuredModel{id: "unknown", displayName: "unknown"}
}

func stringOr(v gjson.Result, def string) string {
	if !v.Exists() || v.Type == gjson.Null {
		return def
	}
	return v.String()
}
