package priosched

// Profiling emission helpers. Every call is a no-op when the scheduler has
// no attached ProfilingSink, so the hot path (workLoop, advanceTimers) never
// needs its own nil-check.

func (s *Scheduler) nowMicros() int32 {
	return int32(s.clock.Now() * 1000)
}

func (s *Scheduler) emitTaskStart(t *Task) {
	if s.sink == nil {
		return
	}
	s.sink.markTaskStart(s.nowMicros(), t.id, t.priorityLevel)
}

func (s *Scheduler) emitTaskCancel(t *Task) {
	if s.sink == nil {
		return
	}
	s.sink.markTaskCancel(s.nowMicros(), t.id)
}

func (s *Scheduler) emitTaskComplete(t *Task) {
	if s.sink == nil {
		return
	}
	s.sink.markTaskComplete(s.nowMicros(), t.id)
}

func (s *Scheduler) emitTaskError(t *Task) {
	if s.sink == nil {
		return
	}
	s.sink.markTaskError(s.nowMicros(), t.id)
}

func (s *Scheduler) emitTaskRun(t *Task) int32 {
	if s.sink == nil {
		return 0
	}
	runID := s.sink.NewRunID()
	s.sink.markTaskRun(s.nowMicros(), t.id, runID)
	return runID
}

func (s *Scheduler) emitTaskYield(t *Task, runID int32) {
	if s.sink == nil {
		return
	}
	s.sink.markTaskYield(s.nowMicros(), t.id, runID)
}

func (s *Scheduler) mainThread() int32 {
	if s.mainThreadID == 0 {
		s.mainThreadID = s.sink.NewMainThreadID()
	}
	return s.mainThreadID
}

func (s *Scheduler) emitSchedulerSuspend() {
	if s.sink == nil {
		return
	}
	s.sink.markSchedulerSuspend(s.nowMicros(), s.mainThread())
}

func (s *Scheduler) emitSchedulerResume() {
	if s.sink == nil {
		return
	}
	s.sink.markSchedulerResume(s.nowMicros(), s.mainThread())
}
