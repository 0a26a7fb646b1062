package domain

import (
	"math"
	"time"
)

// Escalation policy constants.
const (
	// MaxEscalationLevel is the upper bound for any stored level.
	MaxEscalationLevel = 5

	// HandoffLevel is the severity at which a request is handed to a human.
	HandoffLevel = 2

	// HandoffGraceWindow is how far the SLA deadline is pushed out when a
	// request is auto-handed-off, so the new owner gets a fresh window.
	HandoffGraceWindow = 30 * time.Minute
)

// LevelFor maps minutes overdue to an escalation level. The thresholds are
// coarse on purpose: operators reason in buckets, not in exact SLA math.
//
//	< 15 min  -> 0
//	15-59     -> 1
//	60-179    -> 2
//	>= 180    -> 3
func LevelFor(overdueMinutes int) int {
	switch {
	case overdueMinutes < 15:
		return 0
	case overdueMinutes < 60:
		return 1
	case overdueMinutes < 180:
		return 2
	default:
		return 3
	}
}

// ShouldAutoHandoff decides whether crossing to targetLevel hands the
// request to a human. Requests already in handoff, or terminal, never
// re-trigger.
func ShouldAutoHandoff(targetLevel int, status Status) bool {
	if targetLevel < HandoffLevel {
		return false
	}
	return status == StatusPending || status == StatusOptionsSent
}

// ClampLevel bounds a level into [0, MaxEscalationLevel].
func ClampLevel(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxEscalationLevel {
		return MaxEscalationLevel
	}
	return n
}

// NormalizeLevel coerces an externally-read level into a safe value.
// Metadata round-trips through JSON, so levels come back as float64; a
// corrupted record (string, NaN, Inf, nil) normalizes to 0 rather than
// crashing the sweep.
func NormalizeLevel(v any) int {
	switch n := v.(type) {
	case int:
		return ClampLevel(n)
	case int32:
		return ClampLevel(int(n))
	case int64:
		return ClampLevel(int(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return ClampLevel(int(n))
	case float32:
		return NormalizeLevel(float64(n))
	default:
		return 0
	}
}

// OverdueMinutes computes whole minutes between the deadline and now,
// floored, with a one-minute minimum so a just-due row never reports zero.
func OverdueMinutes(now, dueAt time.Time) int {
	minutes := int(now.Sub(dueAt) / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}
