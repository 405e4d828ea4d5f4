package session

import (
	"context"
	"sort"
	"sync"

	"github.com/fsixnotebook/fsix-host/src/fsixhost/entity"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/internal/errors"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/mapper"
	"github.com/fsixnotebook/fsix-host/src/fsixhost/model"
	"github.com/gofrs/uuid"
	"github.com/uber-go/tally"
)

// Registry maps each logical identity to at most one live fsix session.
// It only stores entries: disposing a replaced or evicted session is the caller's job.
type Registry interface {
	// Assign stores entry under its identity unconditionally and returns the entry it replaced, if any.
	Assign(ctx context.Context, entry *entity.SessionEntry) (*entity.SessionEntry, error)
	Lookup(ctx context.Context, id entity.Identity) (*entity.SessionEntry, error)
	// Evict removes the mapping and returns the removed entry, or nil if there was none.
	Evict(ctx context.Context, id entity.Identity) (*entity.SessionEntry, error)
	// EvictSession removes the mapping only while it still points at session.
	EvictSession(ctx context.Context, id entity.Identity, session entity.Session) (bool, error)
	GetAllFromClient(ctx context.Context, client uuid.UUID) ([]*entity.SessionEntry, error)
	All(ctx context.Context) ([]*entity.SessionEntry, error)
	SessionCount(ctx context.Context) (int, error)
}

type registry struct {
	mu       sync.Mutex
	memstore map[string]*model.SessionEntry
	stats    tally.Scope
}

// New returns an empty in-memory Registry.
func New(stats tally.Scope) Registry {
	return &registry{
		memstore: make(map[string]*model.SessionEntry),
		stats:    stats,
	}
}

func (r *registry) Assign(ctx context.Context, entry *entity.SessionEntry) (*entity.SessionEntry, error) {
	if entry == nil || entry.Identity == "" {
		return nil, errors.New("can't assign a session without an identity")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.memstore[string(entry.Identity)]
	r.memstore[string(entry.Identity)] = mapper.SessionEntryToModel(entry)
	r.updateGauge()
	if prev == nil {
		return nil, nil
	}
	return mapper.ModelToSessionEntry(prev)
}

func (r *registry) Lookup(ctx context.Context, id entity.Identity) (*entity.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return nil, &errors.IdentityNotFoundError{Identity: string(id)}
	}
	return mapper.ModelToSessionEntry(m)
}

func (r *registry) Evict(ctx context.Context, id entity.Identity) (*entity.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok {
		return nil, nil
	}
	delete(r.memstore, string(id))
	r.updateGauge()
	return mapper.ModelToSessionEntry(m)
}

func (r *registry) EvictSession(ctx context.Context, id entity.Identity, session entity.Session) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.memstore[string(id)]
	if !ok || m.Session != session {
		return false, nil
	}
	delete(r.memstore, string(id))
	r.updateGauge()
	return true, nil
}

// GetAllFromClient returns the entries owned by a client, ordered by identity.
func (r *registry) GetAllFromClient(ctx context.Context, client uuid.UUID) ([]*entity.SessionEntry, error) {
	return r.collect(func(m *model.SessionEntry) bool { return m.Client == client })
}

// All returns every entry, ordered by identity.
func (r *registry) All(ctx context.Context) ([]*entity.SessionEntry, error) {
	return r.collect(func(*model.SessionEntry) bool { return true })
}

func (r *registry) SessionCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memstore), nil
}

func (r *registry) collect(match func(*model.SessionEntry) bool) ([]*entity.SessionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := make([]*entity.SessionEntry, 0)
	for _, m := range r.memstore {
		if !match(m) {
			continue
		}
		e, err := mapper.ModelToSessionEntry(m)
		if err != nil {
			return nil, err
		}
		found = append(found, e)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Identity < found[j].Identity })
	return found, nil
}

func (r *registry) updateGauge() {
	r.stats.Gauge("active_sessions").Update(float64(len(r.memstore)))
}
