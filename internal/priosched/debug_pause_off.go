//go:build !priosched_debug

package priosched

// PauseExecution is a no-op in non-debug builds.
func (s *Scheduler) PauseExecution() {}

// ContinueExecution is a no-op in non-debug builds.
func (s *Scheduler) ContinueExecution() {}

func (s *Scheduler) isPaused() bool {
	return false
}
