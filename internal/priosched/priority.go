package priosched

import "time"

// PriorityLevel tags a task with how urgently it should run. Lower-urgency
// levels simply carry a longer timeout before they are considered expired.
type PriorityLevel int

const (
	// NoPriority is a reserved sentinel. It is never stored on a task.
	NoPriority PriorityLevel = iota
	Immediate
	UserBlocking
	Normal
	Low
	Idle
)

var priorityLevelNames = map[PriorityLevel]string{
	NoPriority:   "NoPriority",
	Immediate:    "Immediate",
	UserBlocking: "UserBlocking",
	Normal:       "Normal",
	Low:          "Low",
	Idle:         "Idle",
}

func (p PriorityLevel) String() string {
	if name, ok := priorityLevelNames[p]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether p is one of the five schedulable levels (excludes
// NoPriority, which is a sentinel and never a valid schedule target).
func (p PriorityLevel) Valid() bool {
	return p >= Immediate && p <= Idle
}

// coercePriority maps an out-of-range priority to Normal, per spec.md §4.2.
func coercePriority(p PriorityLevel) PriorityLevel {
	if !p.Valid() {
		return Normal
	}
	return p
}

// MAX_31BIT is the largest value representable in a signed 31-bit field,
// used as the effectively-never-expires timeout for Idle priority.
const MAX_31BIT = 1<<30 - 1

// timeoutMs, in ms, keyed by priority level.
var timeoutMs = map[PriorityLevel]float64{
	Immediate:    -1,
	UserBlocking: 250,
	Normal:       5000,
	Low:          10000,
	Idle:         MAX_31BIT,
}

// timeoutFor returns the timeout, in milliseconds, associated with priority.
// The caller must have already coerced an invalid priority to Normal.
func timeoutFor(priority PriorityLevel) float64 {
	return timeoutMs[priority]
}

// DefaultFrameInterval is the yield-budget interval used when ForceFrameRate
// has never been called, or has been reset via ForceFrameRate(0).
const DefaultFrameInterval = 5 * time.Millisecond
