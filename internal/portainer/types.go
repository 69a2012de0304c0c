package portainer

import (
	"strconv"
	"strings"
)

// Endpoint is a remote execution target managed by the server.
type Endpoint struct {
	ID     string
	Name   string
	Status string
}

// Endpoint wire statuses.
const (
	EndpointUp   = "up"
	EndpointDown = "down"
)

// Container is a workload instance scoped to one endpoint.
type Container struct {
	ID          string
	DisplayName string
	State       string
}

// Stack is a named group of workload definitions, independent of endpoints.
type Stack struct {
	ID     string
	Name   string
	Status string
}

// Stack wire statuses.
const (
	StackActive   = "active"
	StackInactive = "inactive"
)

// ContainerDetails is the full inspect payload for a single container.
type ContainerDetails struct {
	ID      string
	Name    string
	Image   string
	State   string
	Status  string
	Created string
	Command string
	Ports   []PortBinding
	Labels  map[string]string
	Env     []string
	Mounts  []string
}

// PortBinding describes one published port.
type PortBinding struct {
	Private int    `json:"PrivatePort"`
	Public  int    `json:"PublicPort"`
	Type    string `json:"Type"`
}

// endpointPayload mirrors one element of GET /api/endpoints.
type endpointPayload struct {
	ID     int    `json:"Id"`
	Name   string `json:"Name"`
	Status int    `json:"Status"`
}

func (p endpointPayload) toDomain() Endpoint {
	status := EndpointDown
	if p.Status == 1 {
		status = EndpointUp
	}
	return Endpoint{
		ID:     strconv.Itoa(p.ID),
		Name:   p.Name,
		Status: status,
	}
}

// containerPayload mirrors one element of the docker container listing
// proxied through the server.
type containerPayload struct {
	ID    string   `json:"Id"`
	Names []string `json:"Names"`
	State string   `json:"State"`
}

func (p containerPayload) toDomain() Container {
	return Container{
		ID:          p.ID,
		DisplayName: displayName(p.Names, p.ID),
		State:       p.State,
	}
}

// displayName picks the primary docker name, stripping the leading slash the
// engine prepends. Falls back to a truncated ID for nameless containers.
func displayName(names []string, id string) string {
	for _, name := range names {
		trimmed := strings.TrimPrefix(strings.TrimSpace(name), "/")
		if trimmed != "" {
			return trimmed
		}
	}
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// stackPayload mirrors one element of GET /api/stacks.
type stackPayload struct {
	ID     int    `json:"Id"`
	Name   string `json:"Name"`
	Status int    `json:"Status"`
}

func (p stackPayload) toDomain() Stack {
	status := StackInactive
	if p.Status == 1 {
		status = StackActive
	}
	return Stack{
		ID:     strconv.Itoa(p.ID),
		Name:   p.Name,
		Status: status,
	}
}

// detailsPayload mirrors the docker inspect payload proxied through the
// server. Only the fields the client presents are decoded.
type detailsPayload struct {
	ID      string `json:"Id"`
	Name    string `json:"Name"`
	Created string `json:"Created"`
	Path    string `json:"Path"`
	Args    []string
	State   struct {
		Status string `json:"Status"`
	} `json:"State"`
	Config struct {
		Image  string            `json:"Image"`
		Labels map[string]string `json:"Labels"`
		Env    []string          `json:"Env"`
	} `json:"Config"`
	Mounts []struct {
		Destination string `json:"Destination"`
	} `json:"Mounts"`
	NetworkSettings struct {
		Ports map[string][]struct {
			HostPort string `json:"HostPort"`
		} `json:"Ports"`
	} `json:"NetworkSettings"`
}

func (p detailsPayload) toDomain() ContainerDetails {
	d := ContainerDetails{
		ID:      p.ID,
		Name:    strings.TrimPrefix(p.Name, "/"),
		Image:   p.Config.Image,
		State:   p.State.Status,
		Status:  p.State.Status,
		Created: p.Created,
		Command: strings.TrimSpace(p.Path + " " + strings.Join(p.Args, " ")),
		Labels:  p.Config.Labels,
		Env:     p.Config.Env,
	}
	for _, m := range p.Mounts {
		d.Mounts = append(d.Mounts, m.Destination)
	}
	for spec, bindings := range p.NetworkSettings.Ports {
		private, proto := splitPortSpec(spec)
		for _, b := range bindings {
			public, _ := strconv.Atoi(b.HostPort)
			d.Ports = append(d.Ports, PortBinding{Private: private, Public: public, Type: proto})
		}
	}
	return d
}

// splitPortSpec parses docker's "80/tcp" port keys.
func splitPortSpec(spec string) (int, string) {
	port, proto, ok := strings.Cut(spec, "/")
	if !ok {
		proto = "tcp"
	}
	n, _ := strconv.Atoi(port)
	return n, proto
}
