package service

import (
	"context"

	"suratku-server/internal/domain"
)

// IdentityProvider resolves the signer acting in ctx. It returns
// ErrUnauthenticated when no signer is attached.
type IdentityProvider interface {
	Identity(ctx context.Context) (*domain.Identity, error)
}

// IdentityFunc adapts a function to IdentityProvider.
type IdentityFunc func(ctx context.Context) (*domain.Identity, error)

func (f IdentityFunc) Identity(ctx context.Context) (*domain.Identity, error) {
	return f(ctx)
}
