// Package deploy executes release plans against a Docker engine: it brings a
// Compose project up in dependency order, waits for the stack to report
// healthy, and runs the management steps inside the backend container.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foodgram/foodgram/internal/core/compose"
	"github.com/foodgram/foodgram/internal/core/release"
	"github.com/foodgram/foodgram/internal/shell/docker"
)

// =============================================================================
// Runner - Executes Release Plans
// =============================================================================

// Config controls how a release is executed.
type Config struct {
	BackendService string        // Service that receives the management commands
	StaticSource   string        // Path inside the backend container to copy out
	StaticDest     string        // Host directory receiving the static files
	ReadyTimeout   time.Duration // Deadline for the stack to report ready
	PollInterval   time.Duration // Interval between readiness checks
	Retries        int           // Retry budget for transient engine errors
	RetryBase      time.Duration
	RetryMax       time.Duration
	SkipMigrate    bool
	SkipStatic     bool
}

// DefaultConfig returns the config used when flags leave values unset.
func DefaultConfig() Config {
	return Config{
		BackendService: "backend",
		StaticSource:   "/app/collected_static",
		StaticDest:     "./static",
		ReadyTimeout:   2 * time.Minute,
		PollInterval:   2 * time.Second,
		Retries:        3,
		RetryBase:      time.Second,
		RetryMax:       15 * time.Second,
	}
}

// Runner executes release plans for one Compose project.
type Runner struct {
	docker  docker.Client
	logger  *slog.Logger
	project *compose.Project
	cfg     Config
}

// NewRunner creates a runner for the given project.
func NewRunner(dockerClient docker.Client, logger *slog.Logger, project *compose.Project, cfg Config) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.BackendService == "" {
		cfg.BackendService = def.BackendService
	}
	if cfg.StaticSource == "" {
		cfg.StaticSource = def.StaticSource
	}
	if cfg.StaticDest == "" {
		cfg.StaticDest = def.StaticDest
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = def.ReadyTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.Retries < 0 {
		cfg.Retries = def.Retries
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = def.RetryBase
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = def.RetryMax
	}
	return &Runner{
		docker:  dockerClient,
		logger:  logger,
		project: project,
		cfg:     cfg,
	}
}

// =============================================================================
// Up
// =============================================================================

// Up runs the full release: stop the previous stack, start the services in
// dependency order, wait for readiness, then migrate and collect static files.
// The first failing step aborts the release with that step's error.
func (r *Runner) Up(ctx context.Context) error {
	plan := release.Plan(release.Options{
		SkipMigrate: r.cfg.SkipMigrate,
		SkipStatic:  r.cfg.SkipStatic,
	})

	r.logger.Info("starting release",
		"project", r.project.Name,
		"services", len(r.project.Services),
		"steps", len(plan),
	)

	for _, step := range plan {
		r.logger.Info("running step", "step", string(step))
		if err := r.runStep(ctx, step); err != nil {
			r.logger.Error("step failed", "step", string(step), "error", err)
			return NewStepError(step, err)
		}
		r.logger.Info("step complete", "step", string(step))
	}

	r.logger.Info("release complete", "project", r.project.Name)
	return nil
}

func (r *Runner) runStep(ctx context.Context, step release.Step) error {
	switch step {
	case release.StepStopStack:
		return r.stopStack(ctx)
	case release.StepStartStack:
		return r.startStack(ctx)
	case release.StepWaitHealthy:
		return r.waitHealthy(ctx)
	case release.StepMigrate:
		return r.execBackend(ctx, []string{"python", "manage.py", "migrate", "--noinput"})
	case release.StepCollectStatic:
		return r.execBackend(ctx, []string{"python", "manage.py", "collectstatic", "--noinput"})
	case release.StepCopyStatic:
		return r.copyStatic(ctx)
	default:
		return fmt.Errorf("unknown step %q", step)
	}
}

// =============================================================================
// Stack Lifecycle
// =============================================================================

// stopStack stops and removes the project's existing containers so the new
// release starts from a clean slate.
func (r *Runner) stopStack(ctx context.Context) error {
	containers, err := r.listProjectContainers(ctx)
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		return nil
	}

	byService := make(map[string]docker.ContainerInfo, len(containers))
	for _, c := range containers {
		byService[c.Labels[docker.LabelService]] = c
	}

	timeout := 10 * time.Second
	for _, svc := range release.StopOrder(r.project.Services) {
		c, ok := byService[svc.Name]
		if !ok {
			continue
		}
		delete(byService, svc.Name)
		if err := r.removeContainer(ctx, c, &timeout); err != nil {
			return err
		}
	}

	// Containers left over from services no longer in the Compose file.
	for _, c := range byService {
		if err := r.removeContainer(ctx, c, &timeout); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) removeContainer(ctx context.Context, c docker.ContainerInfo, timeout *time.Duration) error {
	if c.Status == docker.ContainerStatusRunning {
		if err := r.docker.StopContainer(ctx, c.ID, timeout); err != nil &&
			!errors.Is(err, docker.ErrContainerNotRunning) &&
			!errors.Is(err, docker.ErrContainerNotFound) {
			return fmt.Errorf("stop container %s: %w", c.Name, err)
		}
	}
	if err := r.docker.RemoveContainer(ctx, c.ID, docker.RemoveOptions{Force: true}); err != nil &&
		!errors.Is(err, docker.ErrContainerNotFound) {
		return fmt.Errorf("remove container %s: %w", c.Name, err)
	}
	r.logger.Debug("removed container", "name", c.Name)
	return nil
}

// startStack creates networks, volumes and containers, then starts each
// service once its dependencies are up.
func (r *Runner) startStack(ctx context.Context) error {
	networks, err := r.ensureNetworks(ctx)
	if err != nil {
		return err
	}
	if err := r.ensureVolumes(ctx); err != nil {
		return err
	}

	for _, svc := range release.StartOrder(r.project.Services) {
		if err := r.pullIfMissing(ctx, svc.Image); err != nil {
			return err
		}

		spec := r.buildContainerSpec(svc, networks)
		containerID, err := r.docker.CreateContainer(ctx, spec)
		if err != nil {
			return fmt.Errorf("create container %s: %w", spec.Name, err)
		}
		if err := r.docker.StartContainer(ctx, containerID); err != nil &&
			!errors.Is(err, docker.ErrContainerAlreadyRunning) {
			return fmt.Errorf("start container %s: %w", spec.Name, err)
		}
		r.logger.Info("started service", "service", svc.Name, "container", spec.Name)
	}
	return nil
}

// ensureNetworks creates the project networks, reusing existing ones.
// It returns the service networks mapped to their engine-level names.
func (r *Runner) ensureNetworks(ctx context.Context) (map[string]string, error) {
	defs := r.project.Networks
	if len(defs) == 0 {
		defs = []compose.Network{{Name: "default"}}
	}

	names := make(map[string]string, len(defs))
	for _, net := range defs {
		name := r.project.Name + "_" + net.Name
		if net.External {
			names[net.Name] = net.Name
			continue
		}
		names[net.Name] = name

		_, err := r.docker.CreateNetwork(ctx, docker.NetworkSpec{
			Name:   name,
			Driver: net.Driver,
			Labels: r.resourceLabels(nil),
		})
		if err != nil {
			if errors.Is(err, docker.ErrNetworkAlreadyExists) {
				r.logger.Debug("network already exists, reusing", "network", name)
				continue
			}
			return nil, fmt.Errorf("create network %s: %w", name, err)
		}
		r.logger.Debug("created network", "network", name)
	}
	return names, nil
}

func (r *Runner) ensureVolumes(ctx context.Context) error {
	for _, vol := range r.project.Volumes {
		if vol.External {
			continue
		}
		name := r.volumeName(vol.Name)
		// VolumeCreate is idempotent: an existing volume is returned as-is.
		if _, err := r.docker.CreateVolume(ctx, docker.VolumeSpec{
			Name:   name,
			Driver: vol.Driver,
			Labels: r.resourceLabels(nil),
		}); err != nil {
			return fmt.Errorf("create volume %s: %w", name, err)
		}
		r.logger.Debug("created volume", "volume", name)
	}
	return nil
}

func (r *Runner) pullIfMissing(ctx context.Context, image string) error {
	if image == "" {
		return nil
	}
	exists, err := r.docker.ImageExists(ctx, image)
	if err != nil {
		return fmt.Errorf("inspect image %s: %w", image, err)
	}
	if exists {
		return nil
	}

	r.logger.Info("pulling image", "image", image)
	return r.withRetry(ctx, func() error {
		return r.docker.PullImage(ctx, image, docker.PullOptions{})
	})
}

// buildContainerSpec converts a Compose service into a container spec,
// prefixing named resources with the project name and aliasing the service
// name on each network so services reach each other by Compose name.
func (r *Runner) buildContainerSpec(svc compose.Service, networks map[string]string) docker.ContainerSpec {
	labels := r.resourceLabels(svc.Labels)
	labels[docker.LabelService] = svc.Name

	spec := docker.ContainerSpec{
		Name:           r.containerName(svc.Name),
		Image:          svc.Image,
		Command:        svc.Command,
		Entrypoint:     svc.Entrypoint,
		Env:            svc.Environment,
		Labels:         labels,
		NetworkAliases: make(map[string][]string),
	}

	svcNetworks := svc.Networks
	if len(svcNetworks) == 0 {
		svcNetworks = []string{"default"}
	}
	for _, net := range svcNetworks {
		name, ok := networks[net]
		if !ok {
			name = r.project.Name + "_" + net
		}
		spec.Networks = append(spec.Networks, name)
		spec.NetworkAliases[name] = []string{svc.Name}
	}

	for _, p := range svc.Ports {
		spec.Ports = append(spec.Ports, docker.PortBinding{
			ContainerPort: int(p.Target),
			HostPort:      int(p.Published),
			Protocol:      p.Protocol,
			HostIP:        p.HostIP,
		})
	}

	for _, v := range svc.Volumes {
		source := v.Source
		if v.Type == compose.VolumeMountTypeVolume {
			source = r.volumeName(v.Source)
		}
		spec.Volumes = append(spec.Volumes, docker.VolumeMount{
			Source:   source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}

	if svc.HealthCheck != nil {
		spec.HealthCheck = &docker.HealthCheck{
			Test:    svc.HealthCheck.Test,
			Retries: svc.HealthCheck.Retries,
		}
		if d, err := time.ParseDuration(svc.HealthCheck.Interval); err == nil {
			spec.HealthCheck.Interval = d
		}
		if d, err := time.ParseDuration(svc.HealthCheck.Timeout); err == nil {
			spec.HealthCheck.Timeout = d
		}
		if d, err := time.ParseDuration(svc.HealthCheck.StartPeriod); err == nil {
			spec.HealthCheck.StartPeriod = d
		}
	}

	switch svc.Restart {
	case "always", "on-failure", "unless-stopped":
		spec.RestartPolicy = docker.RestartPolicy{Name: svc.Restart}
	default:
		spec.RestartPolicy = docker.RestartPolicy{Name: "no"}
	}

	return spec
}

// =============================================================================
// Readiness
// =============================================================================

// waitHealthy polls the stack until every container reports ready, a
// container terminally fails, the deadline passes, or ctx is cancelled.
func (r *Runner) waitHealthy(ctx context.Context) error {
	r.logger.Info("waiting for stack readiness",
		"project", r.project.Name,
		"timeout", r.cfg.ReadyTimeout,
	)

	deadline := time.Now().Add(r.cfg.ReadyTimeout)
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		states, err := r.containerStates(ctx)
		if err != nil {
			return err
		}

		verdict := release.AggregateReadiness(states)
		if verdict.Ready {
			r.logger.Info("stack ready", "project", r.project.Name)
			return nil
		}
		if verdict.Failed {
			return fmt.Errorf("stack failed: %s", verdict.Reason)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s: %s", r.cfg.ReadyTimeout, verdict.Reason)
		}
		r.logger.Debug("stack not ready", "reason", verdict.Reason)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Runner) containerStates(ctx context.Context) ([]release.ContainerState, error) {
	var states []release.ContainerState
	for _, svc := range r.project.Services {
		info, err := r.docker.InspectContainer(ctx, r.containerName(svc.Name))
		if err != nil {
			if errors.Is(err, docker.ErrContainerNotFound) {
				states = append(states, release.ContainerState{Service: svc.Name, Status: "missing"})
				continue
			}
			return nil, fmt.Errorf("inspect %s: %w", svc.Name, err)
		}
		states = append(states, release.ContainerState{
			Service: svc.Name,
			Status:  string(info.Status),
			Health:  info.Health,
		})
	}
	return states, nil
}

// =============================================================================
// Management Steps
// =============================================================================

// execBackend runs a command inside the backend container, surfacing the
// command output when it fails.
func (r *Runner) execBackend(ctx context.Context, cmd []string) error {
	containerName := r.containerName(r.cfg.BackendService)
	r.logger.Info("running command", "container", containerName, "cmd", strings.Join(cmd, " "))

	result, err := r.docker.ExecContainer(ctx, containerName, cmd)
	if err != nil {
		if result != nil && result.Output != "" {
			return fmt.Errorf("%w\n%s", err, strings.TrimSpace(result.Output))
		}
		return err
	}
	r.logger.Debug("command finished", "container", containerName, "exit_code", result.ExitCode)
	return nil
}

func (r *Runner) copyStatic(ctx context.Context) error {
	containerName := r.containerName(r.cfg.BackendService)
	r.logger.Info("copying static files",
		"container", containerName,
		"src", r.cfg.StaticSource,
		"dest", r.cfg.StaticDest,
	)
	if err := r.docker.CopyFromContainer(ctx, containerName, r.cfg.StaticSource, r.cfg.StaticDest); err != nil {
		return fmt.Errorf("copy static files: %w", err)
	}
	return nil
}

// =============================================================================
// Down
// =============================================================================

// DownOptions controls what Down removes beyond stopping containers.
type DownOptions struct {
	RemoveContainers bool
	RemoveVolumes    bool
	RemoveNetworks   bool
}

// Down stops the project's containers in reverse dependency order and
// optionally removes containers, networks and volumes.
func (r *Runner) Down(ctx context.Context, opts DownOptions) error {
	containers, err := r.listProjectContainers(ctx)
	if err != nil {
		return err
	}

	byService := make(map[string]docker.ContainerInfo, len(containers))
	for _, c := range containers {
		byService[c.Labels[docker.LabelService]] = c
	}

	timeout := 10 * time.Second
	ordered := release.StopOrder(r.project.Services)
	for _, svc := range ordered {
		c, ok := byService[svc.Name]
		if !ok {
			continue
		}
		delete(byService, svc.Name)
		if err := r.downContainer(ctx, c, &timeout, opts.RemoveContainers); err != nil {
			return err
		}
	}
	for _, c := range byService {
		if err := r.downContainer(ctx, c, &timeout, opts.RemoveContainers); err != nil {
			return err
		}
	}

	if opts.RemoveNetworks {
		for _, net := range r.project.Networks {
			if net.External {
				continue
			}
			name := r.project.Name + "_" + net.Name
			if err := r.docker.RemoveNetwork(ctx, name); err != nil &&
				!errors.Is(err, docker.ErrNetworkNotFound) {
				return fmt.Errorf("remove network %s: %w", name, err)
			}
		}
		if len(r.project.Networks) == 0 {
			name := r.project.Name + "_default"
			if err := r.docker.RemoveNetwork(ctx, name); err != nil &&
				!errors.Is(err, docker.ErrNetworkNotFound) {
				return fmt.Errorf("remove network %s: %w", name, err)
			}
		}
	}

	if opts.RemoveVolumes {
		for _, vol := range r.project.Volumes {
			if vol.External {
				continue
			}
			name := r.volumeName(vol.Name)
			if err := r.docker.RemoveVolume(ctx, name, false); err != nil &&
				!errors.Is(err, docker.ErrVolumeNotFound) {
				return fmt.Errorf("remove volume %s: %w", name, err)
			}
		}
	}

	r.logger.Info("stack down", "project", r.project.Name, "containers", len(containers))
	return nil
}

func (r *Runner) downContainer(ctx context.Context, c docker.ContainerInfo, timeout *time.Duration, remove bool) error {
	if c.Status == docker.ContainerStatusRunning {
		if err := r.docker.StopContainer(ctx, c.ID, timeout); err != nil &&
			!errors.Is(err, docker.ErrContainerNotRunning) &&
			!errors.Is(err, docker.ErrContainerNotFound) {
			return fmt.Errorf("stop container %s: %w", c.Name, err)
		}
		r.logger.Debug("stopped container", "name", c.Name)
	}
	if remove {
		if err := r.docker.RemoveContainer(ctx, c.ID, docker.RemoveOptions{Force: true}); err != nil &&
			!errors.Is(err, docker.ErrContainerNotFound) {
			return fmt.Errorf("remove container %s: %w", c.Name, err)
		}
		r.logger.Debug("removed container", "name", c.Name)
	}
	return nil
}

// =============================================================================
// Status
// =============================================================================

// ServiceStatus is the observed state of one service's container.
type ServiceStatus struct {
	Service     string
	ContainerID string
	Status      string
	Health      string
}

// Status reports per-service container state for the project. Services
// without a container report status "missing".
func (r *Runner) Status(ctx context.Context) ([]ServiceStatus, error) {
	var statuses []ServiceStatus
	for _, svc := range r.project.Services {
		info, err := r.docker.InspectContainer(ctx, r.containerName(svc.Name))
		if err != nil {
			if errors.Is(err, docker.ErrContainerNotFound) {
				statuses = append(statuses, ServiceStatus{Service: svc.Name, Status: "missing"})
				continue
			}
			return nil, fmt.Errorf("inspect %s: %w", svc.Name, err)
		}
		statuses = append(statuses, ServiceStatus{
			Service:     svc.Name,
			ContainerID: info.ID,
			Status:      string(info.Status),
			Health:      info.Health,
		})
	}
	return statuses, nil
}

// =============================================================================
// Helpers
// =============================================================================

func (r *Runner) containerName(service string) string {
	return r.project.Name + "-" + service
}

func (r *Runner) volumeName(volume string) string {
	return r.project.Name + "_" + volume
}

func (r *Runner) resourceLabels(extra map[string]string) map[string]string {
	labels := map[string]string{
		docker.LabelManaged: "true",
		docker.LabelProject: r.project.Name,
	}
	for k, v := range extra {
		labels[k] = v
	}
	return labels
}

func (r *Runner) listProjectContainers(ctx context.Context) ([]docker.ContainerInfo, error) {
	containers, err := r.docker.ListContainers(ctx, docker.ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", docker.LabelProject, r.project.Name),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}
	return containers, nil
}

// withRetry retries fn on transient engine errors with exponential backoff,
// honoring context cancellation between attempts.
func (r *Runner) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= r.cfg.Retries || !isTransient(err) {
			return err
		}

		delay := release.Backoff(attempt, r.cfg.RetryBase, r.cfg.RetryMax)
		r.logger.Warn("transient error, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func isTransient(err error) bool {
	return errors.Is(err, docker.ErrConnectionFailed) ||
		errors.Is(err, docker.ErrImagePullFailed)
}
