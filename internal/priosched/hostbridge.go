package priosched

// HostBridge is the abstract adapter the core depends on to arrange its own
// re-invocation. It is deliberately kept outside the core's scope
// (spec.md §1, §6): the core supplies the yield policy (shouldYieldToHost,
// a Scheduler method, not part of this interface); the bridge supplies the
// "run me later" mechanism.
//
// At most one host-callback scheduling and at most one host-timeout arming
// may be outstanding at a time (spec.md §3, §5); the Scheduler enforces this
// via its own isHostCallbackScheduled/isHostTimeoutScheduled flags and never
// calls RequestHostCallback or RequestHostTimeout redundantly, but a
// HostBridge implementation must still tolerate being handed a single
// outstanding request at a time as its only operating mode.
type HostBridge interface {
	// RequestHostCallback arranges one future invocation of the scheduler's
	// performWorkUntilDeadline, as soon as the host can make one.
	RequestHostCallback()

	// CancelHostCallback cancels a pending RequestHostCallback, if any. It is
	// a no-op if none is pending.
	CancelHostCallback()

	// RequestHostTimeout arranges a single invocation of fn(now) after at
	// least delayMs. Only one timeout is ever armed at a time; a new call
	// supersedes any previously armed one.
	RequestHostTimeout(fn func(now float64), delayMs float64)

	// CancelHostTimeout cancels any armed timeout. It is a no-op if none is
	// armed.
	CancelHostTimeout()
}

// ProfilingSink is the optional tagged-event recorder described in
// spec.md §6. A Scheduler with a nil ProfilingSink simply skips all
// emission calls.
type ProfilingSink interface {
	// StartLoggingProfilingEvents (re)initializes the event buffer.
	StartLoggingProfilingEvents()

	// StopLoggingProfilingEvents returns the current buffer as a byte slice
	// and resets the sink, or returns nil if logging was never started.
	StopLoggingProfilingEvents() []byte

	// NewRunID returns the next monotonically increasing run identifier.
	NewRunID() int32

	// NewMainThreadID returns the next monotonically increasing
	// main-thread identifier.
	NewMainThreadID() int32

	markTaskStart(timeMicros int32, taskID int64, priority PriorityLevel)
	markTaskComplete(timeMicros int32, taskID int64)
	markTaskError(timeMicros int32, taskID int64)
	markTaskCancel(timeMicros int32, taskID int64)
	markTaskRun(timeMicros int32, taskID int64, runID int32)
	markTaskYield(timeMicros int32, taskID int64, runID int32)
	markSchedulerSuspend(timeMicros int32, mainThreadID int32)
	markSchedulerResume(timeMicros int32, mainThreadID int32)
}

// Profiling event tags, per spec.md §6.
const (
	ProfilingEventTaskStart        int32 = 1
	ProfilingEventTaskComplete     int32 = 2
	ProfilingEventTaskError        int32 = 3
	ProfilingEventTaskCancel       int32 = 4
	ProfilingEventTaskRun          int32 = 5
	ProfilingEventTaskYield        int32 = 6
	ProfilingEventSchedulerSuspend int32 = 7
	ProfilingEventSchedulerResume  int32 = 8
)
