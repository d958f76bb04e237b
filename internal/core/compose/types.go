package compose

// =============================================================================
// Project - Main Output Type
// =============================================================================

// Project is a parsed Compose stack, decoupled from compose-go types.
type Project struct {
	Name     string    `json:"name"`
	Services []Service `json:"services"`
	Networks []Network `json:"networks,omitempty"`
	Volumes  []Volume  `json:"volumes,omitempty"`
}

// Service returns the service with the given name, or nil.
func (p *Project) Service(name string) *Service {
	for i := range p.Services {
		if p.Services[i].Name == name {
			return &p.Services[i]
		}
	}
	return nil
}

// =============================================================================
// Service Types
// =============================================================================

// Service represents a single service definition.
type Service struct {
	Name        string            `json:"name"`
	Image       string            `json:"image"`
	Command     []string          `json:"command,omitempty"`
	Entrypoint  []string          `json:"entrypoint,omitempty"`
	Ports       []Port            `json:"ports,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Volumes     []VolumeMount     `json:"volumes,omitempty"`
	Networks    []string          `json:"networks,omitempty"`
	DependsOn   []string          `json:"depends_on,omitempty"`
	Restart     string            `json:"restart,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	HealthCheck *HealthCheck      `json:"healthcheck,omitempty"`
}

// Port represents a port mapping.
type Port struct {
	Target    uint32 `json:"target"`              // Container port
	Published uint32 `json:"published,omitempty"` // Host port (0 = dynamic)
	Protocol  string `json:"protocol,omitempty"`
	HostIP    string `json:"host_ip,omitempty"`
}

// VolumeMountType represents the type of volume mount.
type VolumeMountType string

const (
	VolumeMountTypeBind   VolumeMountType = "bind"
	VolumeMountTypeVolume VolumeMountType = "volume"
	VolumeMountTypeTmpfs  VolumeMountType = "tmpfs"
)

// VolumeMount represents a volume mount in a service.
type VolumeMount struct {
	Type     VolumeMountType `json:"type"`
	Source   string          `json:"source"` // Host path or volume name
	Target   string          `json:"target"` // Container path
	ReadOnly bool            `json:"readonly"`
}

// HealthCheck represents a container health check.
type HealthCheck struct {
	Test        []string `json:"test"`
	Interval    string   `json:"interval,omitempty"`
	Timeout     string   `json:"timeout,omitempty"`
	Retries     int      `json:"retries,omitempty"`
	StartPeriod string   `json:"start_period,omitempty"`
}

// =============================================================================
// Network and Volume Types
// =============================================================================

// Network represents a network definition.
type Network struct {
	Name     string            `json:"name"`
	Driver   string            `json:"driver,omitempty"`
	External bool              `json:"external"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// Volume represents a named volume definition.
type Volume struct {
	Name     string            `json:"name"`
	Driver   string            `json:"driver,omitempty"`
	External bool              `json:"external"`
	Labels   map[string]string `json:"labels,omitempty"`
}
