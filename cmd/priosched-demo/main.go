// Command priosched-demo drives a Scheduler against a real wall clock,
// scheduling a handful of periodic callbacks at different priority levels
// and logging their dispatch order. It is a runnable illustration of the
// wiring a host needs to provide, grounded on the teacher's runner.go
// (flag parsing, config loading, signal-driven shutdown with a grace
// period), trimmed to this module's single-component scope.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bgp59/priosched/internal/hostloop"
	"github.com/bgp59/priosched/internal/priosched"
	"github.com/bgp59/priosched/internal/runtimeinfo"
)

const shutdownMaxWait = 5 * time.Second

var (
	versionArg = flag.Bool("version", false, "Print the version and exit")

	configFileArg = flag.String(
		"config", "",
		"Config file to load; if empty, built-in defaults are used",
	)

	forceFrameRateArg = flag.Int(
		"force-frame-rate-fps", 0,
		"Override the force_frame_rate_fps config setting",
	)
)

const version = "0.1.0-demo"

var demoLog = priosched.NewCompLogger("demo")

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *versionArg {
		fmt.Fprintf(os.Stderr, "priosched-demo version %s\n", version)
		return 0
	}

	cfg := priosched.DefaultConfig()
	if *configFileArg != "" {
		loaded, err := priosched.LoadConfig(*configFileArg, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config file: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *forceFrameRateArg != 0 {
		cfg.ForceFrameRateFPS = *forceFrameRateArg
	}

	if err := priosched.SetLogger(cfg.LoggerConfig); err != nil {
		fmt.Fprintf(os.Stderr, "error setting the logger: %v\n", err)
		return 1
	}

	cpuCount := runtimeinfo.AvailableCPUCount()
	clktck, clktckErr := runtimeinfo.SysClktck()
	if clktckErr != nil {
		demoLog.Infof("available_cpus=%d, clk_tck=unavailable (%v)", cpuCount, clktckErr)
	} else {
		demoLog.Infof("available_cpus=%d, clk_tck=%d", cpuCount, clktck)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := priosched.NewRealClock()
	loop := hostloop.NewLoop(clock)

	var opts []priosched.Option
	var sink *priosched.BufferProfilingSink
	if cfg.EnableProfiling {
		sink = priosched.NewBufferProfilingSink()
		opts = append(opts, priosched.WithProfilingSink(sink))
	}

	sched := priosched.NewScheduler(clock, loop, opts...)
	loop.Bind(sched.PerformWorkUntilDeadline)

	if cfg.ForceFrameRateFPS != 0 {
		sched.ForceFrameRate(float64(cfg.ForceFrameRateFPS))
	}

	if sink != nil {
		sink.StartLoggingProfilingEvents()
		defer func() {
			buf := sink.StopLoggingProfilingEvents()
			demoLog.Infof("profiling buffer: %d bytes", len(buf))
		}()
	}

	sched.StartMessageLoop()
	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	// Seeded via loop.Post rather than called directly: ScheduleCallback
	// touches the Loop's timer/callback state, which only the Run goroutine
	// may do without racing it (internal/hostloop/loop.go's single-executor
	// contract).
	if err := loop.Post(ctx, func() { scheduleDemoWorkload(sched) }); err != nil {
		demoLog.Errorf("failed to seed the demo workload: %v", err)
		cancel()
		<-loopDone
		return 1
	}

	runnerLog := priosched.NewCompLogger("runner")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	runnerLog.Warnf("%s signal received, shutting down", sig)

	cancel()
	select {
	case <-loopDone:
	case <-time.After(shutdownMaxWait):
		runnerLog.Fatalf("shutdown timed out after %s, force exit", shutdownMaxWait)
	}

	return 0
}

// scheduleDemoWorkload seeds the scheduler with one self-repeating task per
// priority level, each logging its own dispatch, to make the priority
// ordering and yield behavior observable.
func scheduleDemoWorkload(sched *priosched.Scheduler) {
	levels := []struct {
		priority priosched.PriorityLevel
		interval time.Duration
	}{
		{priosched.Immediate, 2 * time.Second},
		{priosched.UserBlocking, 1500 * time.Millisecond},
		{priosched.Normal, time.Second},
		{priosched.Low, 3 * time.Second},
		{priosched.Idle, 5 * time.Second},
	}

	for _, lvl := range levels {
		lvl := lvl
		var repeat priosched.Callback
		repeat = func(ctx priosched.CallbackContext) any {
			demoLog.Infof("tick priority=%s didTimeout=%v", lvl.priority, ctx.DidTimeout)
			sched.ScheduleCallback(lvl.priority, repeat, priosched.ScheduleOptions{
				Delay: float64(lvl.interval.Milliseconds()),
			})
			return nil
		}
		sched.ScheduleCallback(lvl.priority, repeat, priosched.ScheduleOptions{
			Delay: float64(lvl.interval.Milliseconds()),
		})
	}
}
