// Package stack implements the composify operations: scaffolding a new
// stack, appending a service to an existing one, and provisioning a
// database service with generated secrets. Each operation locks the
// documents it rewrites and only makes mutations durable after every prior
// step has succeeded.
package stack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/example/composify/internal/composefile"
	"github.com/example/composify/internal/config"
	"github.com/example/composify/internal/secretstore"
)

// Manager carries the resolved directory layout and collaborators for one
// invocation. The layout is injected rather than read from globals so tests
// can point a Manager at a temporary tree.
type Manager struct {
	rootDir   string
	stacksDir string
	rootDoc   string
	store     *secretstore.Store
	logger    *zap.Logger
}

// NewManager builds a Manager from resolved options.
func NewManager(opts *config.Options, store *secretstore.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		rootDir:   opts.RootDir,
		stacksDir: opts.StacksDir,
		rootDoc:   opts.RootComposePath(),
		store:     store,
		logger:    logger,
	}
}

// Store exposes the secret store backing this manager.
func (m *Manager) Store() *secretstore.Store { return m.store }

// ComposePath returns the compose document path for a stack.
func (m *Manager) ComposePath(stack string) string {
	return filepath.Join(m.stacksDir, stack, config.ComposeFileName)
}

// NewResult reports what the New operation created.
type NewResult struct {
	ComposePath  string
	IncludePath  string
	IncludeAdded bool
	ServiceName  string
}

// New scaffolds a stack directory with an initial compose document, then
// registers the document in the root compose include list. The service is
// optional; without one the document carries an empty services section. It
// fails with ErrAlreadyExists when the stack directory exists; there is no
// silent merge into an existing stack.
func (m *Manager) New(ctx context.Context, stackName string, svc *composefile.Service) (*NewResult, error) {
	if err := config.ValidateStackName(stackName); err != nil {
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}
	if err := os.MkdirAll(m.stacksDir, 0o755); err != nil {
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}
	// Mkdir doubles as the existence check: of two racing invocations only
	// one creates the directory, the other fails here.
	dir := filepath.Join(m.stacksDir, stackName)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("new %s: %w: %s", stackName, ErrAlreadyExists, dir)
		}
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}

	composePath := m.ComposePath(stackName)
	doc := composefile.NewDocument()
	title := capitalize(stackName)
	serviceName := ""
	if svc != nil {
		if err := doc.MergeService(svc.Name, svc.Node(), composefile.MergeUpsert); err != nil {
			return nil, fmt.Errorf("new %s: %w", stackName, err)
		}
		title = svc.PrimaryProfileTitle()
		serviceName = svc.Name
	} else if _, err := doc.EnsureSection("services"); err != nil {
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}
	if err := doc.Save(composePath); err != nil {
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}

	// The root document's directory must exist before its lock file can be
	// created beside it.
	if err := os.MkdirAll(filepath.Dir(m.rootDoc), 0o755); err != nil {
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}
	includePath := m.includePath(composePath)
	added, err := m.registerInclude(ctx, includePath, title)
	if err != nil {
		return nil, fmt.Errorf("new %s: %w", stackName, err)
	}
	m.logger.Info("created stack",
		zap.String("stack", stackName),
		zap.String("compose", composePath),
		zap.Bool("includeAdded", added))
	return &NewResult{
		ComposePath:  composePath,
		IncludePath:  includePath,
		IncludeAdded: added,
		ServiceName:  serviceName,
	}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Append upserts a service into an existing stack's compose document. It
// fails with ErrNotFound when the stack or its document is missing, leaving
// nothing modified.
func (m *Manager) Append(ctx context.Context, stackName string, svc *composefile.Service) error {
	if err := config.ValidateStackName(stackName); err != nil {
		return fmt.Errorf("append %s: %w", stackName, err)
	}
	composePath := m.ComposePath(stackName)
	err := withDocumentLock(ctx, composePath, m.logger, func() error {
		doc, err := composefile.Load(composePath)
		if err != nil {
			if errors.Is(err, composefile.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, composePath)
			}
			return err
		}
		if err := doc.MergeService(svc.Name, svc.Node(), composefile.MergeUpsert); err != nil {
			return err
		}
		return doc.Save(composePath)
	})
	if err != nil {
		return fmt.Errorf("append %s/%s: %w", stackName, svc.Name, err)
	}
	m.logger.Info("appended service",
		zap.String("stack", stackName),
		zap.String("service", svc.Name))
	return nil
}

// includePath renders a compose path relative to the docker root with
// forward slashes, falling back to the absolute path when the document
// lives outside the root.
func (m *Manager) includePath(composePath string) string {
	rel, err := filepath.Rel(m.rootDir, composePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return composePath
	}
	return filepath.ToSlash(rel)
}

// registerInclude adds the path to the root document's include list under
// the scoped root lock. Idempotent.
func (m *Manager) registerInclude(ctx context.Context, includePath, title string) (bool, error) {
	var added bool
	err := withDocumentLock(ctx, m.rootDoc, m.logger, func() error {
		root, err := m.loadRootDocument()
		if err != nil {
			return err
		}
		added, err = root.AppendInclude(includePath, title)
		if err != nil {
			return err
		}
		if !added {
			return nil
		}
		return root.Save(m.rootDoc)
	})
	return added, err
}

// loadRootDocument loads the root aggregator document, starting an empty
// one when the file does not exist yet.
func (m *Manager) loadRootDocument() (*composefile.Document, error) {
	root, err := composefile.Load(m.rootDoc)
	if err != nil {
		if errors.Is(err, composefile.ErrNotFound) {
			return composefile.NewDocument(), nil
		}
		return nil, err
	}
	return root, nil
}

// List returns the stack names that contain a compose document, sorted.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.stacksDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list stacks: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(m.ComposePath(entry.Name())); err == nil {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
