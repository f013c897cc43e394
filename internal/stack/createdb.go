package stack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/composify/internal/composefile"
	"github.com/example/composify/internal/config"
	"github.com/example/composify/internal/secretstore"
)

// DBEngine selects the database image and its password wiring.
type DBEngine string

const (
	EnginePostgres DBEngine = "postgres"
	EngineMariaDB  DBEngine = "mariadb"
)

type engineSpec struct {
	image       string
	passwordEnv string
	dataPath    string
}

var engines = map[DBEngine]engineSpec{
	EnginePostgres: {
		image:       "postgres:16",
		passwordEnv: "POSTGRES_PASSWORD_FILE",
		dataPath:    "/var/lib/postgresql/data",
	},
	EngineMariaDB: {
		image:       "mariadb:11",
		passwordEnv: "MARIADB_ROOT_PASSWORD_FILE",
		dataPath:    "/var/lib/mysql",
	},
}

// Engines lists the supported database engines.
func Engines() []string {
	return []string{string(EnginePostgres), string(EngineMariaDB)}
}

// CreateDBOptions configure the database service added to a stack.
type CreateDBOptions struct {
	// Engine defaults to postgres.
	Engine DBEngine
	// ServiceName defaults to "db".
	ServiceName string
	// Image overrides the engine's default image; the repository must stay
	// in the same family as any existing service of the same name.
	Image string
}

// CreateDBResult reports what CreateDB provisioned.
type CreateDBResult struct {
	ServiceName   string
	SecretName    string
	SecretPath    string
	SecretCreated bool
	ComposePath   string
}

// CreateDB adds a database service to an existing stack, generating and
// persisting its password secret and declaring that secret in the root
// aggregator document.
//
// Step order is load → generate → store secret → merge service → sync root
// → save local document. The secret is durable before anything references
// it and the root declaration lands before the local save, so an
// interruption at any point never leaves a saved service pointing at a
// secret that does not exist.
func (m *Manager) CreateDB(ctx context.Context, stackName string, opts CreateDBOptions) (*CreateDBResult, error) {
	if err := config.ValidateStackName(stackName); err != nil {
		return nil, fmt.Errorf("create-db %s: %w", stackName, err)
	}
	engine := opts.Engine
	if engine == "" {
		engine = EnginePostgres
	}
	spec, ok := engines[engine]
	if !ok {
		return nil, fmt.Errorf("create-db %s: unknown engine %q (supported: %s)",
			stackName, engine, strings.Join(Engines(), ", "))
	}
	serviceName := strings.TrimSpace(opts.ServiceName)
	if serviceName == "" {
		serviceName = "db"
	}
	image := strings.TrimSpace(opts.Image)
	if image == "" {
		image = spec.image
	}

	secretName := fmt.Sprintf("%s_%s_password", stackName, serviceName)
	if err := secretstore.ValidateName(secretName); err != nil {
		return nil, fmt.Errorf("create-db %s: %w", stackName, err)
	}

	composePath := m.ComposePath(stackName)
	result := &CreateDBResult{
		ServiceName: serviceName,
		SecretName:  secretName,
		SecretPath:  m.store.PathFor(secretName),
		ComposePath: composePath,
	}

	err := withDocumentLock(ctx, composePath, m.logger, func() error {
		doc, err := composefile.Load(composePath)
		if err != nil {
			if errors.Is(err, composefile.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, composePath)
			}
			return err
		}

		// Secret first: it must be durable before any document references
		// it. A re-run finds the value already stored and reuses it.
		if m.store.Exists(secretName) {
			m.logger.Debug("reusing stored secret", zap.String("name", secretName))
		} else {
			value, err := secretstore.GenerateDefault()
			if err != nil {
				return err
			}
			if err := m.store.Put(secretName, value); err != nil {
				return err
			}
			result.SecretCreated = true
		}

		svc := m.dbService(stackName, serviceName, image, spec, secretName)
		if err := doc.MergeService(serviceName, svc.Node(), composefile.MergeGuardImage); err != nil {
			return err
		}

		// Root declaration lands before the local save; a conflict there
		// aborts with the local document untouched on disk.
		if err := m.syncRootSecret(ctx, secretName, result.SecretPath); err != nil {
			return err
		}
		return doc.Save(composePath)
	})
	if err != nil {
		return nil, fmt.Errorf("create-db %s: %w", stackName, err)
	}
	m.logger.Info("provisioned database service",
		zap.String("stack", stackName),
		zap.String("service", serviceName),
		zap.String("engine", string(engine)),
		zap.String("secret", secretName),
		zap.Bool("secretCreated", result.SecretCreated))
	return result, nil
}

func (m *Manager) dbService(stackName, serviceName, image string, spec engineSpec, secretName string) *composefile.Service {
	return &composefile.Service{
		Name:          serviceName,
		Image:         image,
		ContainerName: stackName + "_" + serviceName,
		Restart:       composefile.DefaultRestart,
		Profiles:      composefile.NormalizeProfiles(nil),
		Volumes: []string{
			fmt.Sprintf("${DOCKERDIR}/%s/%s:%s", stackName, serviceName, spec.dataPath),
		},
		Environment: []composefile.EnvVar{
			{Key: spec.passwordEnv, Value: "/run/secrets/" + secretName},
		},
		Secrets: []string{secretName},
	}
}

// syncRootSecret declares the secret in the root aggregator document under
// the root lock. Idempotent for an identical declaration; a declaration of
// the same name with a different backing file fails with
// composefile.ErrConflict.
func (m *Manager) syncRootSecret(ctx context.Context, secretName, filePath string) error {
	return withDocumentLock(ctx, m.rootDoc, m.logger, func() error {
		root, err := m.loadRootDocument()
		if err != nil {
			return err
		}
		changed, err := root.DeclareSecret(secretName, filePath)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return root.Save(m.rootDoc)
	})
}
