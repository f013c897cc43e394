package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/example/composify/internal/composefile"
)

// serviceFlags carry the operator inputs for an application service,
// shared by the new and append commands.
type serviceFlags struct {
	name            string
	image           string
	containerPath   string
	profiles        []string
	restart         string
	expose          bool
	internalPort    int
	externalPort    int
	middlewareChain string
}

func (f *serviceFlags) bind(flags *pflag.FlagSet) {
	flags.StringVar(&f.name, "name", "", "Service/container name")
	flags.StringVar(&f.image, "image", "", "Image reference (e.g. ghcr.io/org/app:tag)")
	flags.StringVar(&f.containerPath, "container-path", "", "Config volume path inside the container (e.g. /config)")
	flags.StringSliceVar(&f.profiles, "profiles", nil, "Compose profiles (comma-separated)")
	flags.StringVar(&f.restart, "restart", "", "Restart policy: "+strings.Join(composefile.RestartPolicies, ", "))
	flags.BoolVar(&f.expose, "expose", false, "Expose via the reverse proxy (adds t2_proxy network and router labels)")
	flags.IntVar(&f.internalPort, "internal-port", 0, "Container internal port")
	flags.IntVar(&f.externalPort, "external-port", 0, "LAN port to publish (when not exposing; defaults to internal port)")
	flags.StringVar(&f.middlewareChain, "middleware-chain", "", "Reverse proxy middleware chain (when exposing)")
}

func (f *serviceFlags) service(defaultName string) (*composefile.Service, error) {
	name := strings.TrimSpace(f.name)
	if name == "" {
		name = defaultName
	}
	return composefile.NewAppService(composefile.AppServiceOptions{
		Name:            name,
		Image:           f.image,
		ContainerPath:   f.containerPath,
		Profiles:        f.profiles,
		Restart:         f.restart,
		Expose:          f.expose,
		InternalPort:    f.internalPort,
		ExternalPort:    f.externalPort,
		MiddlewareChain: f.middlewareChain,
	})
}

// applyFieldArgs folds positional field=value arguments into the flag
// values, so `append billing web nginx:latest restart=always env.TZ=UTC`
// works without flag soup. env.KEY values become extra environment
// entries, returned separately.
func (f *serviceFlags) applyFieldArgs(args []string) ([]composefile.EnvVar, error) {
	var extraEnv []composefile.EnvVar
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		key = strings.TrimSpace(key)
		switch {
		case key == "restart":
			f.restart = value
		case key == "container-path":
			f.containerPath = value
		case key == "profiles":
			f.profiles = append(f.profiles, value)
		case key == "middleware-chain":
			f.middlewareChain = value
		case key == "expose":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("field expose: %w", err)
			}
			f.expose = b
		case key == "internal-port":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("field internal-port: %w", err)
			}
			f.internalPort = n
		case key == "external-port":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("field external-port: %w", err)
			}
			f.externalPort = n
		case strings.HasPrefix(key, "env."):
			envKey := strings.TrimPrefix(key, "env.")
			if envKey == "" {
				return nil, fmt.Errorf("field %q: empty environment key", arg)
			}
			extraEnv = append(extraEnv, composefile.EnvVar{Key: envKey, Value: value})
		default:
			return nil, fmt.Errorf("unknown field %q (known: restart, container-path, profiles, expose, internal-port, external-port, middleware-chain, env.KEY)", key)
		}
	}
	return extraEnv, nil
}
