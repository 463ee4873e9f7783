// Package mbregistry implements the process-wide Map-Buffer Registry: an
// opaque 64-bit identifier maps to a lazily created MapBuffer, with
// weak-reference-style lifetime approximated by explicit reference
// counting since Go has no weak map.
package mbregistry

import (
	"log/slog"
	"sync"

	"github.com/cocosip/go-mapbuffer/mapbuffer"
	"github.com/cocosip/go-mapbuffer/mberr"
)

type entry struct {
	once      sync.Once
	buf       *mapbuffer.MapBuffer
	createErr error
	refs      int
}

// Registry is the mutex-guarded, process-wide id -> MapBuffer map.
type Registry struct {
	mu      sync.Mutex
	entries map[int64]*entry
	nextID  int64
	logger  *slog.Logger
}

// New returns an empty Registry. logger defaults to slog.Default() when
// nil, following the same accept-an-interface-and-default-it-yourself
// shape the rest of this module's configuration uses.
func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{entries: make(map[int64]*entry), logger: logger}
}

// GetUniqueInstance atomically allocates and returns a fresh buffer id,
// starting from 1 (0 is a readable "no instance" sentinel).
func (r *Registry) GetUniqueInstance() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[id] = &entry{}
	return id
}

// Instance is a handle to one registry slot, returned by GetInstance.
type Instance struct {
	reg *Registry
	id  int64
}

// GetInstance returns a handle to id's slot. It does not itself allocate
// or take a reference; call GetOrCreateMapBuffer for that.
func (r *Registry) GetInstance(id int64) *Instance {
	return &Instance{reg: r, id: id}
}

// GetOrCreateMapBuffer idempotently materialises the MapBuffer behind
// this instance's id, creating it with cfg on first call and taking a
// strong reference. cfg is ignored on subsequent calls once the buffer
// already exists.
func (in *Instance) GetOrCreateMapBuffer(cfg mapbuffer.Config) (*mapbuffer.MapBuffer, error) {
	r := in.reg
	r.mu.Lock()
	e, ok := r.entries[in.id]
	if !ok {
		e = &entry{}
		r.entries[in.id] = e
	}
	e.refs++
	r.mu.Unlock()

	e.once.Do(func() {
		e.buf, e.createErr = mapbuffer.New(cfg)
		if e.createErr == nil {
			r.logger.Debug("map buffer created", "id", in.id)
		}
	})
	if e.createErr != nil {
		return nil, e.createErr
	}
	return e.buf, nil
}

// RemoveMapBuffer releases this instance's strong reference. When the
// reference count reaches zero the slot is dropped and its MapBuffer
// becomes eligible for reclamation.
func (r *Registry) RemoveMapBuffer(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return mberr.Wrap(mberr.NotFound, "mbregistry.RemoveMapBuffer", nil)
	}
	e.refs--
	if e.refs <= 0 {
		delete(r.entries, id)
		r.logger.Debug("map buffer removed", "id", id)
	}
	return nil
}

// Len reports the number of currently held slots, for tests and
// diagnostics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
