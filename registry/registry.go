// Package registry implements the process-wide service directory spec
// §5/§9 calls for: one infoservice.Service per torrent id, registered
// once at construction and looked up by any number of readers, with a
// bounded await for late-arriving lookups. It is the "Global-registry
// substitution" design note turned into a first-class object threaded
// through the application instead of a package-level global map.
//
// Grounded on dht-ocean's common/util/cache.go LRWCache, but reworked from
// a TTL-evicting cache into a register-once directory guarded by a single
// sync.Mutex plus a sync.Cond for Await; entries are released only by an
// explicit Deregister at service shutdown.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"dht-ocean/infoservice"
)

// DefaultAwaitTimeout is the default bound Await waits for a service to
// appear before giving up, per spec's await_timeout constant.
const DefaultAwaitTimeout = 10 * time.Second

var (
	// ErrCollision is returned when two services attempt to register for
	// the same torrent id.
	ErrCollision = errors.New("registry: torrent already registered")
	// ErrAwaitTimeout is returned when a caller waited longer than the
	// configured bound for a service to appear.
	ErrAwaitTimeout = errors.New("registry: timed out waiting for service")
)

// ServiceRegistry maps torrent id -> *infoservice.Service.
type ServiceRegistry struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries map[int64]*infoservice.Service
}

// New creates an empty registry.
func New() *ServiceRegistry {
	r := &ServiceRegistry{entries: make(map[int64]*infoservice.Service)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Register binds svc to torrentID. Only one service may ever be
// registered for a given id; a second attempt is a fatal startup error
// surfaced as ErrCollision.
func (r *ServiceRegistry) Register(torrentID int64, svc *infoservice.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[torrentID]; exists {
		return errors.Wrapf(ErrCollision, "torrent %d", torrentID)
	}
	r.entries[torrentID] = svc
	r.cond.Broadcast()
	return nil
}

// Deregister releases the service registered for torrentID, if any.
func (r *ServiceRegistry) Deregister(torrentID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, torrentID)
}

// Lookup returns the service registered for torrentID without waiting.
func (r *ServiceRegistry) Lookup(torrentID int64) (*infoservice.Service, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	svc, ok := r.entries[torrentID]
	return svc, ok
}

// Await blocks until a service is registered for torrentID, ctx is
// cancelled, or DefaultAwaitTimeout elapses, whichever comes first.
func (r *ServiceRegistry) Await(ctx context.Context, torrentID int64) (*infoservice.Service, error) {
	return r.AwaitTimeout(ctx, torrentID, DefaultAwaitTimeout)
}

// AwaitTimeout is Await with an explicit bound.
func (r *ServiceRegistry) AwaitTimeout(ctx context.Context, torrentID int64, timeout time.Duration) (*infoservice.Service, error) {
	deadline := time.Now().Add(timeout)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			r.cond.Broadcast()
			r.mu.Unlock()
		case <-done:
		}
	}()

	timer := time.AfterFunc(timeout, func() {
		r.mu.Lock()
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer timer.Stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if svc, ok := r.entries[torrentID]; ok {
			return svc, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !time.Now().Before(deadline) {
			return nil, errors.Wrapf(ErrAwaitTimeout, "torrent %d", torrentID)
		}
		r.cond.Wait()
	}
}
