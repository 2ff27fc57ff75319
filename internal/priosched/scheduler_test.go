// Tests for scheduler.go

package priosched

import (
	"testing"

	"github.com/bgp59/priosched/internal/testutils"
)

// fakeBridge is a HostBridge test double driven by hand: no goroutines, no
// timers. Requests are just recorded flags the test harness inspects and
// acts on between scheduler calls.
type fakeBridge struct {
	callbackRequested bool
	timeoutArmed      bool
	timeoutFn         func(now float64)
	timeoutDelayMs    float64
}

func (b *fakeBridge) RequestHostCallback() { b.callbackRequested = true }
func (b *fakeBridge) CancelHostCallback()  { b.callbackRequested = false }

func (b *fakeBridge) RequestHostTimeout(fn func(now float64), delayMs float64) {
	b.timeoutArmed = true
	b.timeoutFn = fn
	b.timeoutDelayMs = delayMs
}

func (b *fakeBridge) CancelHostTimeout() {
	b.timeoutArmed = false
	b.timeoutFn = nil
}

var _ HostBridge = (*fakeBridge)(nil)

// driveUntilIdle repeatedly services whichever of (pending host-callback,
// armed host-timeout) fakeBridge is holding, advancing clock to the timeout
// delay when a timer fires, until neither is pending. It stands in for the
// goroutine-driven hostloop.Loop in these single-threaded, fake-clock tests.
func driveUntilIdle(s *Scheduler, clock *FakeClock, bridge *fakeBridge) {
	for bridge.callbackRequested || bridge.timeoutArmed {
		if bridge.callbackRequested {
			bridge.callbackRequested = false
			s.PerformWorkUntilDeadline()
			continue
		}
		fn := bridge.timeoutFn
		delay := bridge.timeoutDelayMs
		bridge.timeoutArmed = false
		bridge.timeoutFn = nil
		clock.Advance(delay)
		fn(clock.Now())
	}
}

func newTestScheduler(t0 float64) (*Scheduler, *FakeClock, *fakeBridge) {
	clock := NewFakeClock(t0)
	bridge := &fakeBridge{}
	s := NewScheduler(clock, bridge)
	s.StartMessageLoop()
	return s, clock, bridge
}

func TestSchedulerFIFOWithinPriority(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, clock, bridge := newTestScheduler(0)

	var order []string
	record := func(name string) Callback {
		return func(ctx CallbackContext) any {
			order = append(order, name)
			return nil
		}
	}

	s.ScheduleCallback(Normal, record("A"), ScheduleOptions{})
	s.ScheduleCallback(Normal, record("B"), ScheduleOptions{})
	s.ScheduleCallback(Normal, record("C"), ScheduleOptions{})

	driveUntilIdle(s, clock, bridge)

	want := []string{"A", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("got order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
	if s.GetFirstCallbackNode() != nil {
		t.Fatalf("taskQueue not empty after drain")
	}
}

func TestSchedulerPriorityInversionViaExpiration(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	clock := NewFakeClock(0)
	bridge := &fakeBridge{}
	s := NewScheduler(clock, bridge)
	s.StartMessageLoop()

	var order []string
	lowTask := s.ScheduleCallback(Low, func(ctx CallbackContext) any {
		order = append(order, "L")
		return nil
	}, ScheduleOptions{})

	clock.Set(1)
	normalTask := s.ScheduleCallback(Normal, func(ctx CallbackContext) any {
		order = append(order, "N")
		return nil
	}, ScheduleOptions{})

	if lowTask.expirationTime != 10000 {
		t.Fatalf("low task expirationTime = %v, want 10000", lowTask.expirationTime)
	}
	if normalTask.expirationTime != 5001 {
		t.Fatalf("normal task expirationTime = %v, want 5001", normalTask.expirationTime)
	}

	clock.Set(10001)
	driveUntilIdle(s, clock, bridge)

	want := []string{"N", "L"}
	if len(order) != 2 || order[0] != want[0] || order[1] != want[1] {
		t.Fatalf("got order %v, want %v (lower expirationTime runs first)", order, want)
	}
}

func TestSchedulerDelayPromotion(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, clock, bridge := newTestScheduler(0)

	ran := false
	s.ScheduleCallback(Normal, func(ctx CallbackContext) any {
		ran = true
		return nil
	}, ScheduleOptions{Delay: 100})

	if s.GetFirstCallbackNode() != nil {
		t.Fatalf("taskQueue should be empty while X is still delayed")
	}
	if !bridge.timeoutArmed {
		t.Fatalf("expected a host-timeout to be armed for the delayed task")
	}

	clock.Set(50)
	if s.GetFirstCallbackNode() != nil {
		t.Fatalf("taskQueue should still be empty at t=50")
	}

	driveUntilIdle(s, clock, bridge)

	if !ran {
		t.Fatalf("X never ran after its delay elapsed")
	}
	if clock.Now() < 100 {
		t.Fatalf("clock advanced to %v, expected >= 100", clock.Now())
	}
}

func TestSchedulerContinuation(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, clock, bridge := newTestScheduler(0)

	var runs int
	var firstCB Callback
	firstCB = func(ctx CallbackContext) any {
		runs++
		if runs == 1 {
			return Continuation(func(ctx CallbackContext) any {
				runs++
				return nil
			})
		}
		return nil
	}
	s.ScheduleCallback(Normal, firstCB, ScheduleOptions{})

	if !bridge.callbackRequested {
		t.Fatalf("expected a host-callback request after scheduling a ready task")
	}
	bridge.callbackRequested = false
	hasMore := s.flushWork(clock.Now())
	if runs != 1 {
		t.Fatalf("runs = %d after first flush, want 1", runs)
	}
	if !hasMore {
		t.Fatalf("flushWork should report more work after a continuation yields")
	}
	if s.GetFirstCallbackNode() == nil {
		t.Fatalf("continuation task should remain in taskQueue")
	}

	hasMore = s.flushWork(clock.Now())
	if runs != 2 {
		t.Fatalf("runs = %d after second flush, want 2", runs)
	}
	if hasMore {
		t.Fatalf("flushWork should report no more work once the continuation completes")
	}
	if s.GetFirstCallbackNode() != nil {
		t.Fatalf("taskQueue should be empty after the continuation completes")
	}
}

func TestSchedulerYieldUnderBudget(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, clock, bridge := newTestScheduler(0)
	s.ForceFrameRate(125) // frameIntervalMs = floor(1000/125) = 8

	var order []string
	s.ScheduleCallback(Normal, func(ctx CallbackContext) any {
		order = append(order, "first")
		clock.Advance(10) // consumes more than the 8ms budget
		return nil
	}, ScheduleOptions{})
	s.ScheduleCallback(Normal, func(ctx CallbackContext) any {
		order = append(order, "second")
		return nil
	}, ScheduleOptions{})

	bridge.callbackRequested = false
	s.yieldStartTime = clock.Now()
	hasMore := s.flushWork(clock.Now())

	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("got order %v, want exactly [first] before yielding", order)
	}
	if !hasMore {
		t.Fatalf("flushWork should report more work: the second task is still queued")
	}
	if s.GetFirstCallbackNode() == nil {
		t.Fatalf("second task should remain queued after the yield")
	}
}

func TestSchedulerCancellationDuringQueueLifetime(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, clock, bridge := newTestScheduler(0)

	var order []string
	record := func(name string) Callback {
		return func(ctx CallbackContext) any {
			order = append(order, name)
			return nil
		}
	}

	s.ScheduleCallback(Normal, record("A"), ScheduleOptions{})
	taskB := s.ScheduleCallback(Normal, record("B"), ScheduleOptions{})
	s.ScheduleCallback(Normal, record("C"), ScheduleOptions{})

	s.CancelCallback(taskB)

	driveUntilIdle(s, clock, bridge)

	want := []string{"A", "C"}
	if len(order) != len(want) {
		t.Fatalf("got order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
	if s.GetFirstCallbackNode() != nil {
		t.Fatalf("taskQueue not empty after drain")
	}
}

func TestSchedulerRunWithPriorityRestoresOnPanic(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, _, _ := newTestScheduler(0)
	s.currentPriorityLevel = Normal

	func() {
		defer func() { recover() }()
		RunWithPriority(s, Idle, func() any {
			panic("boom")
		})
	}()

	if s.GetCurrentPriorityLevel() != Normal {
		t.Fatalf("priority = %s after panic, want restored to Normal", s.GetCurrentPriorityLevel())
	}
}

func TestSchedulerNextPreservesLowAndIdle(t *testing.T) {
	s, _, _ := newTestScheduler(0)

	s.currentPriorityLevel = Idle
	got := Next(s, func() PriorityLevel { return s.GetCurrentPriorityLevel() })
	if got != Idle {
		t.Fatalf("Next preserved current = %s, want Idle", got)
	}

	s.currentPriorityLevel = Immediate
	got = Next(s, func() PriorityLevel { return s.GetCurrentPriorityLevel() })
	if got != Normal {
		t.Fatalf("Next from Immediate = %s, want Normal", got)
	}
}

func TestSchedulerWrapCallbackCapturesAtWrapTime(t *testing.T) {
	s, _, _ := newTestScheduler(0)

	s.currentPriorityLevel = UserBlocking
	wrapped := WrapCallback(s, func() PriorityLevel { return s.GetCurrentPriorityLevel() })

	s.currentPriorityLevel = Idle
	got := wrapped()
	if got != UserBlocking {
		t.Fatalf("wrapped callback ran under %s, want captured UserBlocking", got)
	}
	if s.GetCurrentPriorityLevel() != Idle {
		t.Fatalf("priority after wrapped call = %s, want restored to Idle", s.GetCurrentPriorityLevel())
	}
}

func TestSchedulerShouldYieldFalseWithinFrameIntervalOfEachEntry(t *testing.T) {
	tlc := testutils.NewTestLogCollect(t, RootLogger, nil)
	defer tlc.RestoreLog()

	s, clock, bridge := newTestScheduler(0)
	s.ForceFrameRate(125) // frameIntervalMs = floor(1000/125) = 8

	var yieldAtFirstCheck, yieldAfterBudget bool
	s.ScheduleCallback(Normal, func(ctx CallbackContext) any {
		// Called right at work-loop entry: budget not yet consumed.
		yieldAtFirstCheck = s.ShouldYield()
		clock.Advance(9) // exceeds the 8ms budget
		yieldAfterBudget = s.ShouldYield()
		return nil
	}, ScheduleOptions{})

	driveUntilIdle(s, clock, bridge)

	if yieldAtFirstCheck {
		t.Fatalf("ShouldYield() = true immediately after performWorkUntilDeadline entry, want false")
	}
	if !yieldAfterBudget {
		t.Fatalf("ShouldYield() = false after the frame interval elapsed, want true")
	}
}

func TestSchedulerRequestPaintIsNoOp(t *testing.T) {
	s, _, _ := newTestScheduler(0)
	s.RequestPaint()
}

func TestSchedulerNowReflectsClock(t *testing.T) {
	s, clock, _ := newTestScheduler(0)
	clock.Set(42)
	if got := s.Now(); got != 42 {
		t.Fatalf("Now() = %v, want 42", got)
	}
}

func TestSchedulerOutOfRangePriorityCoercesToNormal(t *testing.T) {
	s, clock, bridge := newTestScheduler(0)

	var gotPriority PriorityLevel
	s.ScheduleCallback(PriorityLevel(99), func(ctx CallbackContext) any {
		gotPriority = s.GetCurrentPriorityLevel()
		return nil
	}, ScheduleOptions{})

	driveUntilIdle(s, clock, bridge)

	if gotPriority != Normal {
		t.Fatalf("coerced priority = %s, want Normal", gotPriority)
	}
}
