package compose

import (
	"context"
	"strconv"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Parser
// =============================================================================

// Parse parses a Docker Compose document into a Project.
// env supplies values for ${VAR} interpolation (typically the .env file).
func Parse(content []byte, projectName string, env map[string]string) (*Project, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, ErrEmptyInput
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal(content, &dict); err != nil || dict == nil {
		return nil, NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loadProject(content, dict, projectName, env)
	if err != nil {
		return nil, err
	}

	if err := checkUnsupportedFeatures(project); err != nil {
		return nil, err
	}
	if len(project.Services) == 0 {
		return nil, ErrNoServices
	}

	out := &Project{
		Name:     project.Name,
		Services: make([]Service, 0, len(project.Services)),
		Networks: make([]Network, 0, len(project.Networks)),
		Volumes:  make([]Volume, 0, len(project.Volumes)),
	}

	for _, svc := range project.Services {
		converted, err := convertService(svc)
		if err != nil {
			return nil, err
		}
		out.Services = append(out.Services, converted)
	}

	if err := detectCircularDependencies(out.Services); err != nil {
		return nil, err
	}

	for name, net := range project.Networks {
		out.Networks = append(out.Networks, Network{
			Name:     name,
			Driver:   net.Driver,
			External: bool(net.External),
			Labels:   net.Labels,
		})
	}
	for name, vol := range project.Volumes {
		out.Volumes = append(out.Volumes, Volume{
			Name:     name,
			Driver:   vol.Driver,
			External: bool(vol.External),
			Labels:   vol.Labels,
		})
	}

	return out, nil
}

func loadProject(content []byte, dict map[string]interface{}, projectName string, env map[string]string) (*types.Project, error) {
	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{Content: content, Config: dict},
		},
		Environment: env,
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName, true)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// In-memory parse: no path resolution, no extends files
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "dependency cycle detected") {
			return nil, NewParseError("", "circular dependency detected", ErrCircularDependency)
		}
		return nil, NewParseError("", errStr, ErrInvalidYAML)
	}
	return project, nil
}

func checkUnsupportedFeatures(project *types.Project) error {
	if len(project.Secrets) > 0 {
		return NewParseError("secrets", "secrets are not supported", ErrUnsupportedFeature)
	}
	if len(project.Configs) > 0 {
		return NewParseError("configs", "configs are not supported", ErrUnsupportedFeature)
	}
	for _, svc := range project.Services {
		if svc.Extends != nil && svc.Extends.File != "" {
			return NewParseError("services."+svc.Name+".extends", "extends is not supported", ErrUnsupportedFeature)
		}
	}
	return nil
}

func convertService(svc types.ServiceConfig) (Service, error) {
	service := Service{
		Name:        svc.Name,
		Image:       svc.Image,
		Command:     svc.Command,
		Entrypoint:  svc.Entrypoint,
		Environment: make(map[string]string),
		Labels:      make(map[string]string),
		Restart:     svc.Restart,
	}

	if service.Image == "" {
		return Service{}, NewParseError("services."+svc.Name, "service must have an image", ErrServiceNoImage)
	}

	for _, p := range svc.Ports {
		var published uint32
		if p.Published != "" {
			if pub, err := strconv.ParseUint(p.Published, 10, 32); err == nil {
				published = uint32(pub)
			}
		}
		service.Ports = append(service.Ports, Port{
			Target:    p.Target,
			Published: published,
			Protocol:  p.Protocol,
			HostIP:    p.HostIP,
		})
	}

	for k, v := range svc.Environment {
		if v != nil {
			service.Environment[k] = *v
		}
	}

	for _, v := range svc.Volumes {
		mount := VolumeMount{
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		}
		switch v.Type {
		case "bind":
			mount.Type = VolumeMountTypeBind
		case "volume":
			mount.Type = VolumeMountTypeVolume
		case "tmpfs":
			mount.Type = VolumeMountTypeTmpfs
		default:
			if strings.HasPrefix(v.Source, "./") || strings.HasPrefix(v.Source, "/") || strings.HasPrefix(v.Source, "~") {
				mount.Type = VolumeMountTypeBind
			} else {
				mount.Type = VolumeMountTypeVolume
			}
		}
		service.Volumes = append(service.Volumes, mount)
	}

	for net := range svc.Networks {
		service.Networks = append(service.Networks, net)
	}
	for dep := range svc.DependsOn {
		service.DependsOn = append(service.DependsOn, dep)
	}
	for k, v := range svc.Labels {
		service.Labels[k] = v
	}

	if svc.HealthCheck != nil && !svc.HealthCheck.Disable {
		service.HealthCheck = &HealthCheck{Test: svc.HealthCheck.Test}
		if svc.HealthCheck.Retries != nil {
			service.HealthCheck.Retries = int(*svc.HealthCheck.Retries)
		}
		if svc.HealthCheck.Interval != nil {
			service.HealthCheck.Interval = svc.HealthCheck.Interval.String()
		}
		if svc.HealthCheck.Timeout != nil {
			service.HealthCheck.Timeout = svc.HealthCheck.Timeout.String()
		}
		if svc.HealthCheck.StartPeriod != nil {
			service.HealthCheck.StartPeriod = svc.HealthCheck.StartPeriod.String()
		}
	}

	return service, nil
}

// detectCircularDependencies runs a DFS over depends_on edges.
func detectCircularDependencies(services []Service) error {
	deps := make(map[string][]string)
	for _, svc := range services {
		deps[svc.Name] = svc.DependsOn
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(node string) bool
	hasCycle = func(node string) bool {
		visited[node] = true
		recStack[node] = true
		for _, dep := range deps[node] {
			if dep == node {
				return true
			}
			if !visited[dep] {
				if hasCycle(dep) {
					return true
				}
			} else if recStack[dep] {
				return true
			}
		}
		recStack[node] = false
		return false
	}

	for _, svc := range services {
		if !visited[svc.Name] {
			if hasCycle(svc.Name) {
				return ErrCircularDependency
			}
		}
	}
	return nil
}
