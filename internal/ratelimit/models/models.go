package models

import (
	"fmt"
	"strings"
	"time"
)

// KeyPrefix namespaces verification rate limit counters.
const KeyPrefix = "rl:gst"

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, only set when not allowed
}

// Window is a fixed rate limit window.
type Window struct {
	Limit    int
	Duration time.Duration
}

// Start returns the beginning of the window containing now.
func (w Window) Start(now time.Time) time.Time {
	return now.Truncate(w.Duration)
}

// NewResult builds a Result for count hits in the window starting at start.
func NewResult(w Window, count int, start, now time.Time) *Result {
	resetAt := start.Add(w.Duration)
	res := &Result{
		Allowed:   count <= w.Limit,
		Limit:     w.Limit,
		Remaining: max(w.Limit-count, 0),
		ResetAt:   resetAt,
	}
	if !res.Allowed {
		res.RetryAfter = max(int(resetAt.Sub(now).Round(time.Second).Seconds()), 1)
	}
	return res
}

// Key returns the counter key for identifier in the window starting at start.
func Key(identifier string, start time.Time) string {
	return fmt.Sprintf("%s:%s:%d", KeyPrefix, SanitizeKeySegment(identifier), start.Unix())
}

// SanitizeKeySegment replaces ':' so an identifier (an IPv6 address, say)
// cannot spill into adjacent key segments.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// ExceededResponse is the body written with a 429.
type ExceededResponse struct {
	Success          bool   `json:"success"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}
