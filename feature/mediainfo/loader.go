package mediainfo

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// Feature implements the loader.Feature and loader.Runner interfaces.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the mediainfo feature around svc.
func NewFeature(svc *Service) *Feature {
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "mediainfo"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

// Start runs the reconciler and sweep scheduler.
func (f *Feature) Start(ctx context.Context) error {
	return f.service.Start(ctx)
}

// Stop waits for background work to finish.
func (f *Feature) Stop() {
	f.service.Stop()
}
