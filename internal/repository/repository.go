// Package repository defines the transaction persistence boundary.
package repository

import (
	"context"

	"fintrack/internal/core"
)

// Repository stores transactions per user and kind. Implementations
// normalize stored dates with core.NormalizeDate before returning records,
// return core.ErrNotFound when an id does not exist for the user, and wrap
// I/O failures with core.ErrUnavailable.
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks -source=repository.go Repository
type Repository interface {
	// List returns the user's records of the given kind, newest first.
	List(ctx context.Context, userID string, kind core.Kind) ([]core.Transaction, error)
	Get(ctx context.Context, userID string, kind core.Kind, id string) (core.Transaction, error)
	// Create stores t and returns the assigned id.
	Create(ctx context.Context, userID string, t core.Transaction) (string, error)
	Update(ctx context.Context, userID string, kind core.Kind, id string, p core.Patch) error
	Delete(ctx context.Context, userID string, kind core.Kind, id string) error
}
