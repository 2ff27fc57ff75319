package priosched

import (
	"encoding/binary"
	"time"

	"github.com/joeycumines/go-catrate"
)

const (
	profilingInitialCapacity = 131072
	profilingMaxCapacity     = 524288
)

var profilingLog = NewCompLogger("profiling")

// overflowWarnLimiter rate-limits the "console error" emitted when the
// profiling buffer hits its cap (spec.md §7, "Profiling buffer overflow"),
// so a caller that keeps scheduling work after overflow doesn't flood the
// log with one line per event. Grounded on joeycumines-go-utilpkg/catrate,
// a sibling package of the logging-oriented repos in the retrieval pack,
// not on the teacher itself (see DESIGN.md).
var overflowWarnLimiter = catrate.NewLimiter(map[time.Duration]int{
	10 * time.Second: 1,
})

// BufferProfilingSink is the concrete ProfilingSink: an expandable int32
// event buffer that doubles from an initial capacity up to a hard cap, per
// spec.md §6. Not safe for concurrent use — like the Scheduler it serves,
// it is touched only by the single logical executor.
type BufferProfilingSink struct {
	buf     []int32
	started bool
	overrun bool

	runID        int32
	mainThreadID int32
}

// NewBufferProfilingSink returns a sink with logging not yet started; call
// StartLoggingProfilingEvents to begin recording.
func NewBufferProfilingSink() *BufferProfilingSink {
	return &BufferProfilingSink{}
}

func (s *BufferProfilingSink) StartLoggingProfilingEvents() {
	s.buf = make([]int32, 0, profilingInitialCapacity)
	s.started = true
	s.overrun = false
}

func (s *BufferProfilingSink) StopLoggingProfilingEvents() []byte {
	if !s.started {
		return nil
	}
	out := make([]byte, len(s.buf)*4)
	for i, v := range s.buf {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	s.buf = nil
	s.started = false
	s.overrun = false
	return out
}

func (s *BufferProfilingSink) NewRunID() int32 {
	s.runID++
	return s.runID
}

func (s *BufferProfilingSink) NewMainThreadID() int32 {
	s.mainThreadID++
	return s.mainThreadID
}

// record appends an event's fields to the buffer, growing it (doubling) up
// to profilingMaxCapacity. Past the cap, logging stops silently except for a
// rate-limited console error, and scheduling itself is unaffected
// (spec.md §7).
func (s *BufferProfilingSink) record(fields ...int32) {
	if !s.started || s.overrun {
		return
	}
	needed := len(s.buf) + len(fields)
	if needed > profilingMaxCapacity {
		s.overrun = true
		if _, ok := overflowWarnLimiter.Allow("profiling-overflow"); ok {
			profilingLog.Error("profiling buffer exceeded max capacity, logging stopped")
		}
		return
	}
	if needed > cap(s.buf) {
		newCap := cap(s.buf)
		if newCap == 0 {
			newCap = profilingInitialCapacity
		}
		for newCap < needed {
			newCap *= 2
		}
		if newCap > profilingMaxCapacity {
			newCap = profilingMaxCapacity
		}
		grown := make([]int32, len(s.buf), newCap)
		copy(grown, s.buf)
		s.buf = grown
	}
	s.buf = append(s.buf, fields...)
}

func (s *BufferProfilingSink) markTaskStart(timeMicros int32, taskID int64, priority PriorityLevel) {
	s.record(ProfilingEventTaskStart, timeMicros, int32(taskID), int32(priority))
}

func (s *BufferProfilingSink) markTaskComplete(timeMicros int32, taskID int64) {
	s.record(ProfilingEventTaskComplete, timeMicros, int32(taskID))
}

func (s *BufferProfilingSink) markTaskError(timeMicros int32, taskID int64) {
	s.record(ProfilingEventTaskError, timeMicros, int32(taskID))
}

func (s *BufferProfilingSink) markTaskCancel(timeMicros int32, taskID int64) {
	s.record(ProfilingEventTaskCancel, timeMicros, int32(taskID))
}

func (s *BufferProfilingSink) markTaskRun(timeMicros int32, taskID int64, runID int32) {
	s.record(ProfilingEventTaskRun, timeMicros, int32(taskID), runID)
}

func (s *BufferProfilingSink) markTaskYield(timeMicros int32, taskID int64, runID int32) {
	s.record(ProfilingEventTaskYield, timeMicros, int32(taskID), runID)
}

func (s *BufferProfilingSink) markSchedulerSuspend(timeMicros int32, mainThreadID int32) {
	s.record(ProfilingEventSchedulerSuspend, timeMicros, mainThreadID)
}

func (s *BufferProfilingSink) markSchedulerResume(timeMicros int32, mainThreadID int32) {
	s.record(ProfilingEventSchedulerResume, timeMicros, mainThreadID)
}

var _ ProfilingSink = (*BufferProfilingSink)(nil)
