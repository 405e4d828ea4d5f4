package client

import (
	"context"
	"sync"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/model"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
)

// Repository stores the editor clients connected to the host.
type Repository interface {
	Get(context.Context, uuid.UUID) (*entity.Client, error)
	GetFromContext(ctx context.Context) (*entity.Client, error)
	Set(context.Context, *entity.Client) error
	Delete(ctx context.Context, id uuid.UUID) error
	ClientCount(ctx context.Context) (int, error)
}

type repository struct {
	mu       sync.Mutex
	memstore map[uuid.UUID]*model.Client
	stats    tally.Scope
}

// New returns a repository to a key-value Client data store.
func New(stats tally.Scope) Repository {
	return &repository{
		memstore: make(map[uuid.UUID]*model.Client),
		stats:    stats,
	}
}

// Get returns the Client associated with the given id.
func (r *repository) Get(ctx context.Context, id uuid.UUID) (*entity.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.memstore[id]
	if !ok {
		return nil, &errors.ClientNotFoundError{UUID: id}
	}
	return mapper.ModelToClient(c)
}

// GetFromContext returns the Client whose id is stored in the context.
func (r *repository) GetFromContext(ctx context.Context) (*entity.Client, error) {
	id, err := mapper.ContextToClientUUID(ctx)
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Set stores the Client under its uuid, replacing any previous value.
func (r *repository) Set(ctx context.Context, c *entity.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c == nil {
		return errors.New("can't save nil client")
	}
	r.memstore[c.UUID] = mapper.ClientToModel(c)
	r.stats.Gauge("active_clients").Update(float64(len(r.memstore)))
	return nil
}

// Delete removes the Client associated with the given id. Deleting an unknown id is not an error.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.memstore, id)
	r.stats.Gauge("active_clients").Update(float64(len(r.memstore)))
	return nil
}

// ClientCount returns the number of connected clients.
func (r *repository) ClientCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memstore), nil
}
