// Package hostloop provides a concrete priosched.HostBridge: a single
// goroutine driven by a channel of posted work plus one armed timer,
// grounded on the teacher's dispatcherLoop (vmi/internal/scheduler.go) —
// the same "one timer, one select, no locks" shape, adapted from a
// multi-worker dispatch-to-pool loop into a single-executor host adapter.
package hostloop

import (
	"context"
	"time"

	"github.com/bgp59/priosched/internal/priosched"
)

var hostloopLog = priosched.NewCompLogger("hostloop")

// Loop is a priosched.HostBridge. The zero value is not usable; construct
// with NewLoop. A Loop is bound to exactly one Scheduler via Bind, then
// driven by calling Run in its own goroutine. Every posted job (host
// callbacks, armed timeouts, and anything submitted via Post) runs
// serially on the Run goroutine — this is what makes it safe to call
// Scheduler methods from inside them despite the Scheduler itself having
// no internal locking.
type Loop struct {
	clock      priosched.Clock
	onCallback func()

	runCh chan func()

	timer      *time.Timer
	timerArmed bool
	timeoutFn  func(now float64)
}

// NewLoop returns a Loop using clock as its time source. Call Bind before
// Run to attach the Scheduler it will drive.
func NewLoop(clock priosched.Clock) *Loop {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	return &Loop{
		clock: clock,
		runCh: make(chan func(), 8),
		timer: timer,
	}
}

// Bind attaches the function the Loop invokes on a requested host callback —
// ordinarily (*priosched.Scheduler).PerformWorkUntilDeadline. It must be
// called once, before Run, and after the Scheduler has been constructed
// with this Loop as its HostBridge (the two are mutually referential, so
// wiring them up is necessarily a two-step process).
func (l *Loop) Bind(onCallback func()) {
	l.onCallback = onCallback
}

// Post serializes fn onto the Run goroutine, for callers outside it (for
// example a different goroutine wanting to call ScheduleCallback) that must
// respect the Scheduler's single-executor model. It blocks until Run is
// able to accept it or ctx is done.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case l.runCh <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the loop until ctx is canceled. It is meant to be started in
// its own goroutine: `go loop.Run(ctx)`.
func (l *Loop) Run(ctx context.Context) {
	hostloopLog.Info("start host loop")
	defer func() {
		l.stopTimer()
		hostloopLog.Info("host loop stopped")
	}()

	for {
		var timerC <-chan time.Time
		if l.timerArmed {
			timerC = l.timer.C
		}

		select {
		case <-ctx.Done():
			return
		case fn := <-l.runCh:
			fn()
		case <-timerC:
			l.timerArmed = false
			fn := l.timeoutFn
			l.timeoutFn = nil
			if fn != nil {
				fn(l.clock.Now())
			}
		}
	}
}

// RequestHostCallback implements priosched.HostBridge.
func (l *Loop) RequestHostCallback() {
	l.runCh <- func() {
		if l.onCallback != nil {
			l.onCallback()
		}
	}
}

// CancelHostCallback implements priosched.HostBridge. The core never
// actually calls it — once a host-callback post is queued there is no
// cheap way to un-queue it, and nothing in the work-loop needs to — so
// this is a documented no-op, same as the upstream contract it mirrors.
func (l *Loop) CancelHostCallback() {}

// RequestHostTimeout implements priosched.HostBridge.
func (l *Loop) RequestHostTimeout(fn func(now float64), delayMs float64) {
	l.stopTimer()
	l.timeoutFn = fn
	d := time.Duration(delayMs * float64(time.Millisecond))
	if d < 0 {
		d = 0
	}
	l.timer.Reset(d)
	l.timerArmed = true
}

// CancelHostTimeout implements priosched.HostBridge.
func (l *Loop) CancelHostTimeout() {
	l.stopTimer()
	l.timeoutFn = nil
}

func (l *Loop) stopTimer() {
	if l.timerArmed {
		if !l.timer.Stop() {
			select {
			case <-l.timer.C:
			default:
			}
		}
		l.timerArmed = false
	}
}

var _ priosched.HostBridge = (*Loop)(nil)
