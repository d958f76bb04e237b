// Package docker provides a Docker client for container lifecycle management.
package docker

import (
	"context"
	"io"
	"time"
)

// =============================================================================
// Container Types
// =============================================================================

// ContainerSpec defines the specification for creating a container.
type ContainerSpec struct {
	Name           string
	Image          string
	Command        []string
	Entrypoint     []string
	Env            map[string]string
	Labels         map[string]string
	Ports          []PortBinding
	Volumes        []VolumeMount
	Networks       []string
	NetworkAliases map[string][]string // network name to DNS aliases
	WorkingDir     string
	User           string
	RestartPolicy  RestartPolicy
	HealthCheck    *HealthCheck
}

// PortBinding defines a port mapping.
type PortBinding struct {
	ContainerPort int
	HostPort      int    // 0 for auto-assign
	Protocol      string // "tcp" or "udp"
	HostIP        string // "" for 0.0.0.0
}

// VolumeMount defines a volume mount.
type VolumeMount struct {
	Source   string // Volume name or host path
	Target   string // Container path
	ReadOnly bool
}

// RestartPolicy defines the container restart policy.
type RestartPolicy struct {
	Name              string // "no", "always", "on-failure", "unless-stopped"
	MaximumRetryCount int
}

// HealthCheck defines container health check configuration.
type HealthCheck struct {
	Test        []string
	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	StartPeriod time.Duration
}

// =============================================================================
// Container Info
// =============================================================================

// ContainerStatus represents the container status.
type ContainerStatus string

const (
	ContainerStatusCreated    ContainerStatus = "created"
	ContainerStatusRunning    ContainerStatus = "running"
	ContainerStatusPaused     ContainerStatus = "paused"
	ContainerStatusRestarting ContainerStatus = "restarting"
	ContainerStatusRemoving   ContainerStatus = "removing"
	ContainerStatusExited     ContainerStatus = "exited"
	ContainerStatusDead       ContainerStatus = "dead"
)

// ContainerInfo contains information about a container.
type ContainerInfo struct {
	ID         string
	Name       string
	Image      string
	Status     ContainerStatus
	Health     string // "healthy", "unhealthy", "starting", ""
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	Ports      []PortBinding
	Labels     map[string]string
	ExitCode   int
}

// ExecResult is the outcome of a command run inside a container.
type ExecResult struct {
	ExitCode int
	Output   string // Combined stdout and stderr
}

// =============================================================================
// Network and Volume Types
// =============================================================================

// NetworkSpec defines the specification for creating a network.
type NetworkSpec struct {
	Name   string
	Driver string // "bridge" when empty
	Labels map[string]string
}

// VolumeSpec defines the specification for creating a volume.
type VolumeSpec struct {
	Name   string
	Driver string
	Labels map[string]string
}

// =============================================================================
// Options
// =============================================================================

// RemoveOptions defines options for removing containers.
type RemoveOptions struct {
	Force         bool
	RemoveVolumes bool
}

// ListOptions defines options for listing containers.
type ListOptions struct {
	All     bool              // Include stopped containers
	Filters map[string]string // e.g., {"label": "com.foodgram.project=foodgram"}
}

// LogOptions defines options for container logs.
type LogOptions struct {
	Follow     bool
	Tail       string // "all" or number
	Timestamps bool
}

// PullOptions defines options for pulling images.
type PullOptions struct {
	Platform string // e.g., "linux/amd64"
}

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the Docker client interface used by the deploy runner.
type Client interface {
	// Container operations
	CreateContainer(ctx context.Context, spec ContainerSpec) (containerID string, err error)
	StartContainer(ctx context.Context, containerID string) error
	StopContainer(ctx context.Context, containerID string, timeout *time.Duration) error
	RemoveContainer(ctx context.Context, containerID string, opts RemoveOptions) error
	InspectContainer(ctx context.Context, containerID string) (*ContainerInfo, error)
	ListContainers(ctx context.Context, opts ListOptions) ([]ContainerInfo, error)
	ContainerLogs(ctx context.Context, containerID string, opts LogOptions) (io.ReadCloser, error)
	ExecContainer(ctx context.Context, containerID string, cmd []string) (*ExecResult, error)
	CopyFromContainer(ctx context.Context, containerID, srcPath, dstDir string) error

	// Network operations
	CreateNetwork(ctx context.Context, spec NetworkSpec) (networkID string, err error)
	RemoveNetwork(ctx context.Context, networkID string) error

	// Volume operations
	CreateVolume(ctx context.Context, spec VolumeSpec) (volumeName string, err error)
	RemoveVolume(ctx context.Context, volumeName string, force bool) error

	// Image operations
	PullImage(ctx context.Context, image string, opts PullOptions) error
	ImageExists(ctx context.Context, image string) (bool, error)

	// Health operations
	Ping(ctx context.Context) error
	Close() error
}

// =============================================================================
// Label Constants
// =============================================================================

const (
	LabelManaged = "com.foodgram.managed"
	LabelProject = "com.foodgram.project"
	LabelService = "com.foodgram.service"
)
