package catalog

import (
	"context"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
	"github.com/google/uuid"
)

// Scope restricts a listing to one owner. The zero Scope lists everything.
type Scope struct {
	OwnerID string
}

// Source is the records backend behind every table. List decodes the collection into
// into, which must be a pointer to a slice of the entity's model.
type Source interface {
	List(ctx context.Context, entity Entity, scope Scope, into any) error
	// Owner returns the owner id of one record.
	Owner(ctx context.Context, entity Entity, id string) (string, error)
	UpdateStatus(ctx context.Context, entity Entity, id, status string) error
	Delete(ctx context.Context, entity Entity, id string) error
}

// Fetcher adapts a Source listing into a dataview fetch function.
func Fetcher[T any](source Source, entity Entity, scope Scope) dataview.FetchFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		var records []T
		if err := source.List(ctx, entity, scope, &records); err != nil {
			return nil, err
		}
		return records, nil
	}
}

// IDProvider issues record identifiers.
type IDProvider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs an IDProvider that issues UUIDv7 identifiers.
func NewUUIDProvider() IDProvider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
