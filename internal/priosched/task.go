package priosched

// Task is the opaque handle returned to callers of ScheduleCallback. Fields
// are owned exclusively by the Scheduler that created the task; callers must
// not mutate them (spec.md §5, "Shared-resource policy").
type Task struct {
	// id is assigned at creation, strictly monotonically increasing across
	// the process lifetime, and never reused.
	id int64

	// callback is the user function (or the continuation that replaced it),
	// or nil while in flight, after completion, or after cancellation (a nil
	// callback marks a tombstone).
	callback Callback

	priorityLevel PriorityLevel

	// startTime is the earliest wall time (in clock-ms) at which the task
	// may run.
	startTime float64

	// expirationTime is startTime + timeoutFor(priorityLevel). Lower means
	// more urgent; it is the taskQueue sort key.
	expirationTime float64

	// sortIndex is the active heap key: startTime while the task sits in
	// timerQueue, expirationTime while it sits in taskQueue.
	sortIndex float64

	// isQueued is profiling-only bookkeeping: whether the task is currently
	// considered live in a queue (used to avoid emitting a duplicate
	// TaskStart when a timer is promoted).
	isQueued bool
}

// ID returns the task's monotonically increasing identifier.
func (t *Task) ID() int64 { return t.id }

// PriorityLevel returns the priority the task was scheduled with.
func (t *Task) PriorityLevel() PriorityLevel { return t.priorityLevel }

// Canceled reports whether the task's callback has been cleared, either by
// cancellation, by running to completion, or (transiently) by being in
// flight. A continuation task is never Canceled between runs.
func (t *Task) Canceled() bool { return t.callback == nil }

// Continuation is a function a Callback may return to replace itself
// without re-entering the heap (spec.md §9, "Callback returning either a
// continuation or not"). Any other return value is treated as "done".
type Continuation func(ctx CallbackContext) any

// CallbackContext is the named-field form of the boolean didTimeout argument
// (spec.md §9 design note).
type CallbackContext struct {
	DidTimeout bool
}

// Callback is the user function supplied to ScheduleCallback. It returns
// either a Continuation (to be re-invoked in place of this entry) or any
// other value, which is treated as "done".
type Callback func(ctx CallbackContext) any
