// Package priosched is the public face of the scheduler core for users of
// this module. The implementation lives in internal/priosched (and its
// concrete HostBridge in internal/hostloop); this file re-exports the
// surface a caller needs to construct and drive a Scheduler.
package priosched

import (
	"github.com/sirupsen/logrus"

	"github.com/bgp59/priosched/internal/hostloop"
	internal "github.com/bgp59/priosched/internal/priosched"
)

// Priority levels, in increasing order of tolerated latency.
const (
	NoPriority   = internal.NoPriority
	Immediate    = internal.Immediate
	UserBlocking = internal.UserBlocking
	Normal       = internal.Normal
	Low          = internal.Low
	Idle         = internal.Idle
)

type (
	PriorityLevel       = internal.PriorityLevel
	Task                = internal.Task
	Callback            = internal.Callback
	Continuation        = internal.Continuation
	CallbackContext     = internal.CallbackContext
	ScheduleOptions     = internal.ScheduleOptions
	Scheduler           = internal.Scheduler
	Option              = internal.Option
	Clock               = internal.Clock
	FakeClock           = internal.FakeClock
	HostBridge          = internal.HostBridge
	ProfilingSink       = internal.ProfilingSink
	BufferProfilingSink = internal.BufferProfilingSink
	Config              = internal.Config
	LoggerConfig        = internal.LoggerConfig
)

// Loop is the goroutine-driven HostBridge implementation in
// internal/hostloop, re-exported so callers outside this module tree don't
// need to import an internal package path.
type Loop = hostloop.Loop

var (
	NewScheduler           = internal.NewScheduler
	WithProfilingSink      = internal.WithProfilingSink
	NewRealClock           = internal.NewRealClock
	NewFakeClock           = internal.NewFakeClock
	NewBufferProfilingSink = internal.NewBufferProfilingSink
	NewLoop                = hostloop.NewLoop
	DefaultConfig          = internal.DefaultConfig
	DefaultLoggerConfig    = internal.DefaultLoggerConfig
	LoadConfig             = internal.LoadConfig
	SetLogger              = internal.SetLogger
)

// RunWithPriority runs fn with the scheduler's priority temporarily set to
// priority, restoring the previous priority on return.
func RunWithPriority[R any](s *Scheduler, priority PriorityLevel, fn func() R) R {
	return internal.RunWithPriority(s, priority, fn)
}

// Next runs fn at a priority no more urgent than Normal.
func Next[R any](s *Scheduler, fn func() R) R {
	return internal.Next(s, fn)
}

// WrapCallback captures the scheduler's current priority at wrap time and
// restores it for every future invocation of the returned function.
func WrapCallback[R any](s *Scheduler, fn func() R) func() R {
	return internal.WrapCallback(s, fn)
}

// NewCompLogger returns a logger entry tagged with comp=name, sharing the
// scheduler's own root logger.
func NewCompLogger(name string) *logrus.Entry {
	return internal.NewCompLogger(name)
}

// GetRootLogger exposes the shared root logger for tests that want to
// capture its output via internal/testutils.TestLogCollect; its
// concrete type is intentionally obscured.
func GetRootLogger() any { return internal.RootLogger }
