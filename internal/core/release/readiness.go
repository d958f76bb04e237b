package release

// =============================================================================
// Readiness Aggregation
// =============================================================================

// ContainerState is the observed state of one container during a release.
type ContainerState struct {
	Service string
	Status  string // created, running, exited, ...
	Health  string // healthy, unhealthy, starting, or "" when no healthcheck
}

// Readiness is the aggregate verdict over a stack's containers.
type Readiness struct {
	Ready  bool
	Failed bool   // A container can never become ready (exited or unhealthy)
	Reason string // Set when not ready
}

// ContainerReady reports whether a single container counts as ready.
// With a healthcheck the check must pass; without one, running is enough.
func ContainerReady(c ContainerState) bool {
	if c.Status != "running" {
		return false
	}
	if c.Health == "" {
		return true
	}
	return c.Health == "healthy"
}

// ContainerFailed reports whether a container has terminally failed:
// it exited, or its healthcheck gave up.
func ContainerFailed(c ContainerState) bool {
	switch c.Status {
	case "exited", "dead", "removing":
		return true
	}
	return c.Health == "unhealthy"
}

// AggregateReadiness folds container states into a single verdict.
// An empty stack is never ready.
func AggregateReadiness(containers []ContainerState) Readiness {
	if len(containers) == 0 {
		return Readiness{Reason: "no containers found"}
	}

	for _, c := range containers {
		if ContainerFailed(c) {
			return Readiness{
				Failed: true,
				Reason: "container " + c.Service + " failed (" + describe(c) + ")",
			}
		}
	}
	for _, c := range containers {
		if !ContainerReady(c) {
			return Readiness{Reason: "container " + c.Service + " not ready (" + describe(c) + ")"}
		}
	}
	return Readiness{Ready: true}
}

func describe(c ContainerState) string {
	if c.Health != "" {
		return c.Status + ", health=" + c.Health
	}
	return c.Status
}
