package release

import "github.com/foodgram/foodgram/internal/core/compose"

// =============================================================================
// Service Ordering
// =============================================================================

// StartOrder sorts services by their depends_on edges using Kahn's algorithm,
// dependencies first. Cycles are rejected at parse time; if one slips through,
// the remaining services are appended in input order as a fallback.
func StartOrder(services []compose.Service) []compose.Service {
	if len(services) == 0 {
		return services
	}

	serviceMap := make(map[string]compose.Service)
	inDegree := make(map[string]int)
	dependents := make(map[string][]string)

	for _, svc := range services {
		serviceMap[svc.Name] = svc
		inDegree[svc.Name] = len(svc.DependsOn)
		for _, dep := range svc.DependsOn {
			dependents[dep] = append(dependents[dep], svc.Name)
		}
	}

	var queue []string
	for _, svc := range services {
		if inDegree[svc.Name] == 0 {
			queue = append(queue, svc.Name)
		}
	}

	var result []compose.Service
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if svc, ok := serviceMap[name]; ok {
			result = append(result, svc)
		}
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(result) < len(services) {
		placed := make(map[string]bool, len(result))
		for _, svc := range result {
			placed[svc.Name] = true
		}
		for _, svc := range services {
			if !placed[svc.Name] {
				result = append(result, svc)
			}
		}
	}

	return result
}

// StopOrder is the reverse of StartOrder: dependents stop before their
// dependencies so the database goes down last.
func StopOrder(services []compose.Service) []compose.Service {
	ordered := StartOrder(services)
	reversed := make([]compose.Service, len(ordered))
	for i, svc := range ordered {
		reversed[len(ordered)-1-i] = svc
	}
	return reversed
}
