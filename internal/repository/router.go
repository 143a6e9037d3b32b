package repository

import (
	"context"
	"errors"

	"github.com/ZephyrianDawnstrider/hrms/internal/database"
	"github.com/ZephyrianDawnstrider/hrms/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrEmployeeIDTaken = errors.New("employee id already taken")
)

type Resolver interface {
	Resolve(ctx context.Context) models.Backend
}

// Router hands out the backend chosen for this operation. Callers take one
// handle per operation and do not keep it.
type Router struct {
	resolver Resolver
	backends database.Backends
}

func NewRouter(resolver Resolver, backends database.Backends) *Router {
	return &Router{
		resolver: resolver,
		backends: backends,
	}
}

func (r *Router) Conn(ctx context.Context) database.Handle {
	return r.backends.Get(r.resolver.Resolve(ctx))
}
