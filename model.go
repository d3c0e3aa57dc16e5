package main

import "strings"

type UsageResponse struct {
	FiveHour *UsageBucket `json:"five_hour"`
	SevenDay *UsageBucket `json:"seven_day"`
}

type UsageBucket struct {
	Utilization *float64 `json:"utilization"` // 0.0–100.0
	ResetsAt    *string  `json:"resets_at"`   // ISO 8601 or null
}

// present reports whether the API actually sent this window. An empty object
// counts as missing.
func (b *UsageBucket) present() bool {
	return b != nil && (b.Utilization != nil || b.ResetsAt != nil)
}

// QuotaKey names one cached quota window.
type QuotaKey string

const (
	KeySession QuotaKey = "session"
	KeyWeekly  QuotaKey = "weekly"
)

// QuotaReading is the display-ready utilization of one quota window.
type QuotaReading struct {
	Percentage int
	ResetsAt   string // verbatim from the API, empty when unknown
}

func newQuotaReading(utilization float64, resetsAt string) QuotaReading {
	return QuotaReading{
		Percentage: int(min(max(utilization, 0), 100)),
		ResetsAt:   resetsAt,
	}
}

func clampPercent(p int) int {
	return min(max(p, 0), 100)
}

// Source records where a resolution got its data.
type Source int

const (
	SourceNone Source = iota
	SourceCache
	SourceAPI
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceAPI:
		return "api"
	}
	return "none"
}

// Quotas is the outcome of one resolution. A nil reading means the window is
// unknown and its segment is left out of the line.
type Quotas struct {
	Session *QuotaReading
	Weekly  *QuotaReading
	Source  Source
}

// ModelInfo is the model field of the snapshot. The host sends either an
// object with id and display_name or a bare name.
type ModelInfo interface {
	ID() string
	DisplayName() string
}

type StructuredModel struct {
	id, displayName string
}

func (m StructuredModel) ID() string          { return m.id }
func (m StructuredModel) DisplayName() string { return m.displayName }

type BareModelName string

func (m BareModelName) ID() string          { return string(m) }
func (m BareModelName) DisplayName() string { return string(m) }

// Snapshot is the session state sent by the host on stdin.
type Snapshot struct {
	Model   ModelInfo
	Version string
	Context ContextWindow
}

type ContextWindow struct {
	CurrentUsageTokens int
	WindowSizeTokens   int
}

func shortModelName(m ModelInfo) string {
	return strings.ToLower(m.DisplayName())
}
