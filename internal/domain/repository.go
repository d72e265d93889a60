package domain

import "context"

// ServiceRepository defines the interface for the catalog snapshot store.
type ServiceRepository interface {
	// ReplaceAll atomically replaces the snapshot with a fresh set of records
	ReplaceAll(ctx context.Context, services []Service) error

	// List retrieves the full snapshot in insertion order
	List(ctx context.Context) ([]Service, error)

	// Stream iterates the snapshot without loading it all into memory
	Stream(ctx context.Context, fn func(*Service) error) error

	// Categories returns distinct categories
	Categories(ctx context.Context, limit int) ([]string, error)

	// Stats retrieves aggregate statistics
	Stats(ctx context.Context) (*CatalogStats, error)
}
