// Package release contains pure planning logic for rolling out the stack:
// step ordering, service start order, readiness aggregation and retry backoff.
// No I/O lives here; the shell deploy runner executes the plan.
package release

import "time"

// =============================================================================
// Release Steps
// =============================================================================

// Step identifies one stage of a release.
type Step string

const (
	StepStopStack     Step = "stop_stack"
	StepStartStack    Step = "start_stack"
	StepWaitHealthy   Step = "wait_healthy"
	StepMigrate       Step = "migrate"
	StepCollectStatic Step = "collect_static"
	StepCopyStatic    Step = "copy_static"
)

// Options selects which optional steps a release performs.
type Options struct {
	SkipMigrate bool
	SkipStatic  bool
}

// Plan returns the release steps in execution order.
// Management steps run only after every container reports ready, so a broken
// stack never receives schema changes.
func Plan(opts Options) []Step {
	steps := []Step{StepStopStack, StepStartStack, StepWaitHealthy}
	if !opts.SkipMigrate {
		steps = append(steps, StepMigrate)
	}
	if !opts.SkipStatic {
		steps = append(steps, StepCollectStatic, StepCopyStatic)
	}
	return steps
}

// =============================================================================
// Retry Backoff
// =============================================================================

// Backoff returns the delay before the given retry attempt (0-based),
// doubling from base and capped at max.
func Backoff(attempt int, base, max time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
