package country

import "context"

// Repository defines read access to the country reference data. The data
// is loaded by an external one-shot importer; this service only reads it.
type Repository interface {
	// GetByCode resolves a country by its ISO code.
	GetByCode(ctx context.Context, code string) (*Country, error)

	// ListGroups returns all country groups ordered by name.
	ListGroups(ctx context.Context) ([]*CountryGroup, error)
}
