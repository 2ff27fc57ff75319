// Package priosched implements the core of a cooperative priority
// scheduler: two priority-ordered queues (delayed timers and ready tasks),
// expiration-driven dispatch ordering, a work-loop with a yield-to-host
// budget, and the capability set (HostBridge, ProfilingSink) an embedding
// host must supply.
//
// The Scheduler type is not safe for concurrent use. Like the teacher's
// own dispatcher loop, exactly one logical executor is assumed to drive
// it; there is deliberately no internal locking (spec.md §5).
package priosched

import (
	"fmt"
	"math"
)

var schedulerLog = NewCompLogger("scheduler")

// Scheduler owns the two priority queues and the work-loop. Zero value is
// not usable; construct with NewScheduler.
type Scheduler struct {
	clock  Clock
	bridge HostBridge
	sink   ProfilingSink

	nextTaskID int64

	taskQueue  taskHeap
	timerQueue taskHeap

	currentPriorityLevel PriorityLevel
	currentTask          *Task

	isPerformingWork        bool
	isHostCallbackScheduled bool
	isHostTimeoutScheduled  bool
	isMessageLoopRunning    bool

	// isSchedulerPaused is only ever set when built with the
	// priosched_debug tag; see debug_pause_on.go / debug_pause_off.go.
	isSchedulerPaused bool

	frameIntervalMs float64
	yieldStartTime  float64

	// mainThreadID is lazily obtained from the ProfilingSink on first use,
	// so a Scheduler that never attaches a sink never touches it.
	mainThreadID int32
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithProfilingSink attaches a ProfilingSink. Without this option,
// profiling emission is skipped entirely.
func WithProfilingSink(sink ProfilingSink) Option {
	return func(s *Scheduler) { s.sink = sink }
}

// NewScheduler constructs a Scheduler bound to clock and bridge. bridge
// must be non-nil; it is the only mechanism by which the scheduler ever
// becomes active again after returning control to the host.
func NewScheduler(clock Clock, bridge HostBridge, opts ...Option) *Scheduler {
	if clock == nil {
		clock = NewRealClock()
	}
	s := &Scheduler{
		clock:                clock,
		bridge:               bridge,
		currentPriorityLevel: Normal,
		frameIntervalMs:      float64(DefaultFrameInterval.Milliseconds()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleOptions carries the optional arguments to ScheduleCallback.
type ScheduleOptions struct {
	// Delay is a non-negative number of milliseconds before the task
	// becomes eligible to run. Negative values are treated as 0.
	Delay float64
}

// ScheduleCallback enqueues cb at priority, returning the Task handle.
// priority is coerced to Normal if out of range (spec.md §4.2).
func (s *Scheduler) ScheduleCallback(priority PriorityLevel, cb Callback, opts ScheduleOptions) *Task {
	priority = coercePriority(priority)

	now := s.clock.Now()
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}
	startTime := now + delay
	timeout := timeoutFor(priority)
	expirationTime := startTime + timeout

	s.nextTaskID++
	task := &Task{
		id:             s.nextTaskID,
		callback:       cb,
		priorityLevel:  priority,
		startTime:      startTime,
		expirationTime: expirationTime,
	}

	if startTime > now {
		task.sortIndex = startTime
		push(&s.timerQueue, task)
		if peek(&s.taskQueue) == nil && peek(&s.timerQueue) == task {
			s.cancelHostTimeoutIfScheduled()
			s.requestHostTimeout(startTime - now)
		}
	} else {
		task.sortIndex = expirationTime
		push(&s.taskQueue, task)
		task.isQueued = true
		s.emitTaskStart(task)
		if !s.isHostCallbackScheduled && !s.isPerformingWork {
			s.isHostCallbackScheduled = true
			s.bridge.RequestHostCallback()
		}
	}

	return task
}

// CancelCallback marks task as a tombstone: its callback will never run. It
// is O(1) and a no-op for an already-completed or unknown task.
func (s *Scheduler) CancelCallback(task *Task) {
	if task == nil || task.callback == nil {
		return
	}
	if task.isQueued {
		s.emitTaskCancel(task)
	}
	task.callback = nil
}

// GetFirstCallbackNode returns the highest-priority ready task, or nil.
func (s *Scheduler) GetFirstCallbackNode() *Task {
	return peek(&s.taskQueue)
}

// GetCurrentPriorityLevel returns the priority of the callback currently
// executing. Outside any callback it returns the priority set by an enclosing
// RunWithPriority, Next or wrapped callback, and Normal by default.
func (s *Scheduler) GetCurrentPriorityLevel() PriorityLevel {
	return s.currentPriorityLevel
}

// RunWithPriority runs fn with the scheduler's current priority temporarily
// set to priority (coerced to Normal if invalid), restoring the previous
// priority on every exit path, including panics.
func RunWithPriority[R any](s *Scheduler, priority PriorityLevel, fn func() R) R {
	priority = coercePriority(priority)
	prev := s.currentPriorityLevel
	s.currentPriorityLevel = priority
	defer func() { s.currentPriorityLevel = prev }()
	return fn()
}

// Next runs fn at a priority no more urgent than Normal: if the current
// priority is Immediate, UserBlocking or Normal, fn runs at Normal;
// otherwise (Low or Idle) the current priority is preserved.
func Next[R any](s *Scheduler, fn func() R) R {
	priority := s.currentPriorityLevel
	switch priority {
	case Immediate, UserBlocking, Normal:
		priority = Normal
	}
	return RunWithPriority(s, priority, fn)
}

// WrapCallback captures the scheduler's current priority at wrap time;
// every invocation of the returned function runs fn under that captured
// priority, restoring the prior priority afterward.
func WrapCallback[R any](s *Scheduler, fn func() R) func() R {
	captured := s.currentPriorityLevel
	return func() R {
		return RunWithPriority(s, captured, fn)
	}
}

// ForceFrameRate sets the yield-budget interval from a target frame rate.
// fps must be in [1, 125]; fps == 0 restores the 5ms default. Any other
// value is rejected with a rate-limited console error and no state change
// (spec.md §4.2, §7).
func (s *Scheduler) ForceFrameRate(fps float64) {
	switch {
	case fps == 0:
		s.frameIntervalMs = float64(DefaultFrameInterval.Milliseconds())
	case fps >= 1 && fps <= 125:
		s.frameIntervalMs = math.Floor(float64(1000) / fps)
	default:
		if _, ok := overflowWarnLimiter.Allow("force-frame-rate-rejected"); ok {
			schedulerLog.Errorf(
				"forceFrameRate: %v is forbidden, expected a positive integer between 1 and 125",
				fps,
			)
		}
	}
}

// advanceTimers promotes due entries from timerQueue to taskQueue. It is
// the only mechanism by which delayed tasks become ready (spec.md §4.3).
func (s *Scheduler) advanceTimers(now float64) {
	for {
		root := peek(&s.timerQueue)
		if root == nil {
			return
		}
		if root.callback == nil {
			pop(&s.timerQueue)
			continue
		}
		if root.startTime <= now {
			pop(&s.timerQueue)
			root.sortIndex = root.expirationTime
			push(&s.taskQueue, root)
			if !root.isQueued {
				root.isQueued = true
				s.emitTaskStart(root)
			}
			continue
		}
		return
	}
}

// handleTimeout is the HostBridge's armed-timeout callback.
func (s *Scheduler) handleTimeout(now float64) {
	s.isHostTimeoutScheduled = false
	s.advanceTimers(now)

	if !s.isHostCallbackScheduled {
		if peek(&s.taskQueue) != nil {
			s.isHostCallbackScheduled = true
			s.bridge.RequestHostCallback()
		} else if nextTimer := peek(&s.timerQueue); nextTimer != nil {
			s.requestHostTimeout(nextTimer.startTime - now)
		}
	}
}

// workLoop drains taskQueue, honoring continuations and the yield budget.
// It returns true iff more work remains and the caller should reschedule.
func (s *Scheduler) workLoop(initialTime float64) bool {
	currentTime := initialTime
	s.advanceTimers(currentTime)

	currentTask := peek(&s.taskQueue)
	for currentTask != nil && !s.isPaused() {
		if currentTask.expirationTime > currentTime && s.shouldYieldToHost() {
			break
		}

		cb := currentTask.callback
		if cb != nil {
			currentTask.callback = nil
			s.currentPriorityLevel = currentTask.priorityLevel
			runID := s.emitTaskRun(currentTask)
			didTimeout := currentTask.expirationTime <= currentTime
			s.currentTask = currentTask

			result := cb(CallbackContext{DidTimeout: didTimeout})

			currentTime = s.clock.Now()
			if continuation, ok := result.(Continuation); ok {
				currentTask.callback = func(ctx CallbackContext) any { return continuation(ctx) }
				s.emitTaskYield(currentTask, runID)
				s.advanceTimers(currentTime)
				return true
			}
			if fn, ok := result.(func(CallbackContext) any); ok {
				currentTask.callback = fn
				s.emitTaskYield(currentTask, runID)
				s.advanceTimers(currentTime)
				return true
			}

			s.emitTaskComplete(currentTask)
			currentTask.isQueued = false
			if peek(&s.taskQueue) == currentTask {
				pop(&s.taskQueue)
			}
			s.advanceTimers(currentTime)
		} else {
			pop(&s.taskQueue)
		}

		currentTask = peek(&s.taskQueue)
	}

	s.currentTask = nil

	if currentTask != nil {
		return true
	}

	if firstTimer := peek(&s.timerQueue); firstTimer != nil {
		s.requestHostTimeout(firstTimer.startTime - currentTime)
	}
	return false
}

// StartMessageLoop marks the scheduler as actively driven; it is idempotent
// and typically called once by the host adapter before the first
// performWorkUntilDeadline invocation.
func (s *Scheduler) StartMessageLoop() {
	s.isMessageLoopRunning = true
}

// PerformWorkUntilDeadline is invoked by the HostBridge once per scheduled
// host callback (spec.md §4.6). It is the only public entry point into the
// work-loop.
func (s *Scheduler) PerformWorkUntilDeadline() {
	if !s.isMessageLoopRunning {
		// A host callback the scheduler itself requested (isHostCallbackScheduled)
		// restarts a message loop that went idle after draining its queue.
		if !s.isHostCallbackScheduled {
			return
		}
		s.isMessageLoopRunning = true
	}

	currentTime := s.clock.Now()
	s.yieldStartTime = currentTime

	// A panicking callback still leaves the scheduler rescheduled: flushWork
	// recovers its own panics (logging them) and reports hasMoreWork = true
	// rather than letting one bad callback wedge the message loop.
	hasMoreWork := true
	hasMoreWork = s.flushWork(currentTime)

	if hasMoreWork {
		s.bridge.RequestHostCallback()
	} else {
		s.isMessageLoopRunning = false
	}
}

// flushWork runs one iteration of the work-loop, managing the
// isPerformingWork / priority-restore / profiling-suspend bookkeeping
// around it (spec.md §4.6).
func (s *Scheduler) flushWork(initialTime float64) (hasMoreWork bool) {
	s.emitSchedulerResume()

	s.isHostCallbackScheduled = false
	if s.isHostTimeoutScheduled {
		s.isHostTimeoutScheduled = false
		s.bridge.CancelHostTimeout()
	}

	s.isPerformingWork = true
	previousPriorityLevel := s.currentPriorityLevel

	defer func() {
		s.currentPriorityLevel = previousPriorityLevel
		s.currentTask = nil
		s.isPerformingWork = false
		s.emitSchedulerSuspend()
	}()

	defer func() {
		if r := recover(); r != nil {
			if s.currentTask != nil {
				s.emitTaskError(s.currentTask)
				s.currentTask.isQueued = false
			}
			schedulerLog.WithField("panic", r).Error("callback panicked, scheduler continuing")
			hasMoreWork = true
		}
	}()

	return s.workLoop(initialTime)
}

// shouldYieldToHost reports whether the in-progress host invocation has
// consumed its yield budget (spec.md §4.7).
func (s *Scheduler) shouldYieldToHost() bool {
	elapsed := s.clock.Now() - s.yieldStartTime
	return elapsed >= s.frameIntervalMs
}

// ShouldYield is the public form of shouldYieldToHost (spec.md §6): it
// reports whether a callback running under the current host invocation has
// consumed its yield budget and ought to return a Continuation rather than
// keep working.
func (s *Scheduler) ShouldYield() bool {
	return s.shouldYieldToHost()
}

// RequestPaint is reserved for a future rendering hook; it is a no-op
// (spec.md §6).
func (s *Scheduler) RequestPaint() {}

// Now returns the scheduler's current clock-ms reading.
func (s *Scheduler) Now() float64 {
	return s.clock.Now()
}

func (s *Scheduler) requestHostTimeout(delayMs float64) {
	if delayMs < 0 {
		delayMs = 0
	}
	s.isHostTimeoutScheduled = true
	s.bridge.RequestHostTimeout(s.handleTimeout, delayMs)
}

func (s *Scheduler) cancelHostTimeoutIfScheduled() {
	if s.isHostTimeoutScheduled {
		s.isHostTimeoutScheduled = false
		s.bridge.CancelHostTimeout()
	}
}

func (s *Scheduler) String() string {
	return fmt.Sprintf(
		"Scheduler{taskQueue=%d, timerQueue=%d, priority=%s}",
		s.taskQueue.Len(), s.timerQueue.Len(), s.currentPriorityLevel,
	)
}
