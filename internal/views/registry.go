package views

import (
	"context"
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/tunedesk/internal/catalog"
	"github.com/MarcoPoloResearchLab/tunedesk/internal/dataview"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// DefaultSessionLimit bounds the number of live sessions when no limit is configured.
const DefaultSessionLimit = 256

var errMissingFactory = errors.New("views: table factory is required")

// Session is one live table owned by a viewer.
type Session struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	Viewer    Viewer    `json:"viewer"`
	CreatedAt time.Time `json:"created_at"`
	Table     Table     `json:"-"`
}

// RegistryConfig describes the dependencies of a Registry.
type RegistryConfig struct {
	Factory Factory
	Limit   int
	IDs     catalog.IDProvider
	Logger  *zap.Logger
	Clock   func() time.Time
}

// Registry keeps the most recently used sessions. Evicted and deleted sessions cancel
// their in-flight fetches.
type Registry struct {
	factory Factory
	cache   *lru.Cache[string, *Session]
	ids     catalog.IDProvider
	logger  *zap.Logger
	clock   func() time.Time
}

// NewRegistry constructs a Registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Factory.Source == nil {
		return nil, errMissingFactory
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ids := cfg.IDs
	if ids == nil {
		ids = catalog.NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	cache, err := lru.NewWithEvict(limit, func(id string, session *Session) {
		session.Table.Close()
		logger.Debug("view session closed", zap.String("session_id", id), zap.String("entity", session.Entity))
	})
	if err != nil {
		return nil, err
	}
	return &Registry{factory: cfg.Factory, cache: cache, ids: ids, logger: logger, clock: clock}, nil
}

// Create opens a session for entity and performs its first load. A failed fetch is
// reported through the rendered page, not as an error.
func (r *Registry) Create(ctx context.Context, viewer Viewer, entity catalog.Entity, pageSize int) (*Session, error) {
	table, err := r.factory.NewTable(entity, viewer, pageSize)
	if err != nil {
		return nil, err
	}
	id, err := r.ids.NewID()
	if err != nil {
		table.Close()
		return nil, err
	}
	session := &Session{
		ID:        id,
		Entity:    entity.String(),
		Viewer:    viewer,
		CreatedAt: r.clock().UTC(),
		Table:     table,
	}
	r.cache.Add(id, session)

	if err := table.Reload(ctx); err != nil && !errors.Is(err, dataview.ErrSuperseded) {
		r.logger.Warn("initial table load failed",
			zap.String("session_id", id),
			zap.String("entity", entity.String()),
			zap.Error(err))
	}
	return session, nil
}

// Get returns the viewer's session. Sessions owned by other viewers are reported missing.
func (r *Registry) Get(viewer Viewer, id string) (*Session, error) {
	session, ok := r.cache.Get(id)
	if !ok || session.Viewer.UserID != viewer.UserID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete closes the viewer's session.
func (r *Registry) Delete(viewer Viewer, id string) error {
	if _, err := r.Get(viewer, id); err != nil {
		return err
	}
	r.cache.Remove(id)
	return nil
}

// ForEach visits every live session of entity without touching recency.
func (r *Registry) ForEach(entity catalog.Entity, visit func(*Session)) {
	for _, session := range r.cache.Values() {
		if session.Entity == entity.String() {
			visit(session)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Close ends every session.
func (r *Registry) Close() {
	r.cache.Purge()
}
