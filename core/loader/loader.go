package loader

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Feature is a module exposing HTTP routes.
type Feature interface {
	Name() string
	IsEnabled() bool
	Load(app fiber.Router) error
}

// Runner is implemented by features owning background work.
type Runner interface {
	// Start launches background work bound to ctx. It must not block.
	Start(ctx context.Context) error
	// Stop waits for background work to finish.
	Stop()
}

// Manager holds the registry of features.
type Manager struct {
	features []Feature
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a feature to the registry.
func (m *Manager) Register(f Feature) {
	m.features = append(m.features, f)
}

// Features returns the registered features in registration order.
func (m *Manager) Features() []Feature {
	return m.features
}

// LoadAll loads the routes of every enabled feature.
func (m *Manager) LoadAll(app fiber.Router) error {
	for _, f := range m.features {
		if !f.IsEnabled() {
			continue
		}
		if err := f.Load(app); err != nil {
			return fmt.Errorf("failed to load feature %s: %w", f.Name(), err)
		}
	}
	return nil
}

// StartAll starts the background work of every enabled Runner feature.
func (m *Manager) StartAll(ctx context.Context) error {
	for _, f := range m.features {
		r, ok := f.(Runner)
		if !ok || !f.IsEnabled() {
			continue
		}
		if err := r.Start(ctx); err != nil {
			return fmt.Errorf("failed to start feature %s: %w", f.Name(), err)
		}
	}
	return nil
}

// StopAll stops Runner features in reverse registration order.
func (m *Manager) StopAll() {
	for i := len(m.features) - 1; i >= 0; i-- {
		if r, ok := m.features[i].(Runner); ok && m.features[i].IsEnabled() {
			r.Stop()
		}
	}
}
