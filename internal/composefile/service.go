package composefile

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// RestartPolicies lists the accepted values for a service restart policy.
var RestartPolicies = []string{"always", "unless-stopped", "on-failure", "no"}

// DefaultRestart is applied when no policy is given.
const DefaultRestart = "unless-stopped"

// EnvVar is one environment entry; order is preserved in the emitted
// document.
type EnvVar struct {
	Key   string
	Value string
}

// Label is one label entry; order is preserved in the emitted document.
type Label struct {
	Key   string
	Value string
}

// Service describes a service definition to be emitted into a compose
// document. Fields map one-to-one onto compose keys; empty fields are
// omitted.
type Service struct {
	Name          string
	Image         string
	ContainerName string
	Restart       string
	Profiles      []string
	Networks      []string
	Volumes       []string
	Environment   []EnvVar
	Labels        []Label
	Ports         []string
	Secrets       []string
}

// AppServiceOptions carry the operator inputs for a standard application
// service.
type AppServiceOptions struct {
	Name          string
	Image         string
	ContainerPath string
	Profiles      []string
	Restart       string
	// Expose routes the service through the reverse proxy instead of
	// publishing a host port.
	Expose          bool
	InternalPort    int
	ExternalPort    int
	MiddlewareChain string
}

// NewAppService computes a full service definition from operator inputs the
// same way for every stack: a ${DOCKERDIR} config volume, PUID/PGID/TZ
// environment, and either proxy labels (expose) or a published port.
func NewAppService(opts AppServiceOptions) (*Service, error) {
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if strings.TrimSpace(opts.Image) == "" {
		return nil, fmt.Errorf("service %q: image is required", name)
	}
	restart := strings.TrimSpace(opts.Restart)
	if restart == "" {
		restart = DefaultRestart
	}
	if err := ValidateRestart(restart); err != nil {
		return nil, fmt.Errorf("service %q: %w", name, err)
	}

	svc := &Service{
		Name:          name,
		Image:         strings.TrimSpace(opts.Image),
		ContainerName: name,
		Restart:       restart,
		Profiles:      NormalizeProfiles(opts.Profiles),
		Environment: []EnvVar{
			{Key: "PUID", Value: "$PUID"},
			{Key: "PGID", Value: "$PGID"},
			{Key: "TZ", Value: "$TZ"},
		},
	}
	if path := strings.TrimSpace(opts.ContainerPath); path != "" {
		svc.Volumes = []string{fmt.Sprintf("${DOCKERDIR}/%s:%s", name, path)}
	}
	if opts.Expose {
		if opts.InternalPort <= 0 {
			return nil, fmt.Errorf("service %q: internal port is required when exposing", name)
		}
		svc.Networks = []string{"t2_proxy"}
		svc.Labels = proxyLabels(name, opts.InternalPort, opts.MiddlewareChain)
	} else if opts.InternalPort > 0 {
		external := opts.ExternalPort
		if external <= 0 {
			external = opts.InternalPort
		}
		svc.Ports = []string{fmt.Sprintf("%d:%d", external, opts.InternalPort)}
	}
	return svc, nil
}

// ValidateRestart rejects restart policies compose would not accept.
func ValidateRestart(policy string) error {
	for _, p := range RestartPolicies {
		if policy == p {
			return nil
		}
	}
	return fmt.Errorf("restart policy must be one of: %s", strings.Join(RestartPolicies, ", "))
}

// NormalizeProfiles splits comma-joined entries, trims, dedupes, and always
// includes the "all" profile.
func NormalizeProfiles(raw []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, item := range raw {
		for _, tok := range strings.Split(item, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	if !seen["all"] {
		out = append(out, "all")
	}
	return out
}

// PrimaryProfileTitle returns the capitalized first non-"all" profile, or
// the capitalized service name. Used as the comment above a root include
// entry.
func (s *Service) PrimaryProfileTitle() string {
	for _, p := range s.Profiles {
		if strings.ToLower(p) != "all" {
			return capitalize(p)
		}
	}
	return capitalize(s.Name)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func proxyLabels(name string, port int, middlewareChain string) []Label {
	labels := []Label{
		{Key: "traefik.enable", Value: "true"},
		{Key: fmt.Sprintf("traefik.http.routers.%s-rtr.entrypoints", name), Value: "web-secure"},
		{Key: fmt.Sprintf("traefik.http.routers.%s-rtr.rule", name), Value: fmt.Sprintf("Host(`%s.${DOMAINNAME}`)", name)},
		{Key: fmt.Sprintf("traefik.http.routers.%s-rtr.service", name), Value: fmt.Sprintf("%s-svc", name)},
		{Key: fmt.Sprintf("traefik.http.services.%s-svc.loadbalancer.server.port", name), Value: fmt.Sprintf("%d", port)},
	}
	if chain := strings.TrimSpace(middlewareChain); chain != "" {
		labels = append(labels, Label{
			Key:   fmt.Sprintf("traefik.http.routers.%s-rtr.middlewares", name),
			Value: chain + "@file",
		})
	}
	return labels
}

// Node emits the service as a mapping node in a stable key order: image,
// container_name, restart, profiles, networks, volumes, environment,
// labels, ports, secrets.
func (s *Service) Node() *yaml.Node {
	node := newMappingNode()
	mapSet(node, "image", newScalarNode(s.Image))
	if s.ContainerName != "" {
		mapSet(node, "container_name", newScalarNode(s.ContainerName))
	}
	if s.Restart != "" {
		mapSet(node, "restart", newScalarNode(s.Restart))
	}
	if len(s.Profiles) > 0 {
		mapSet(node, "profiles", scalarSequence(s.Profiles))
	}
	if len(s.Networks) > 0 {
		mapSet(node, "networks", scalarSequence(s.Networks))
	}
	if len(s.Volumes) > 0 {
		mapSet(node, "volumes", scalarSequence(s.Volumes))
	}
	if len(s.Environment) > 0 {
		env := newMappingNode()
		for _, kv := range s.Environment {
			mapSet(env, kv.Key, newScalarNode(kv.Value))
		}
		mapSet(node, "environment", env)
	}
	if len(s.Labels) > 0 {
		labels := newMappingNode()
		for _, kv := range s.Labels {
			mapSet(labels, kv.Key, newScalarNode(kv.Value))
		}
		mapSet(node, "labels", labels)
	}
	if len(s.Ports) > 0 {
		mapSet(node, "ports", scalarSequence(s.Ports))
	}
	if len(s.Secrets) > 0 {
		mapSet(node, "secrets", scalarSequence(s.Secrets))
	}
	return node
}

// ServiceSnippet renders a service as the `name: ...` YAML block shown in
// previews.
func ServiceSnippet(s *Service) (string, error) {
	node := newMappingNode()
	mapSet(node, s.Name, s.Node())
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
