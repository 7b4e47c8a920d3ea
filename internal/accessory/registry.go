package accessory

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the in-memory set of live accessories, keyed by stable
// identity.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	byID map[string]*Accessory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Accessory)}
}

// Add registers an accessory.
//
// Returns:
//   - error: ErrDuplicateID if the identity is already registered
func (r *Registry) Add(a *Accessory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[a.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, a.ID())
	}
	r.byID[a.ID()] = a
	return nil
}

// Get returns the accessory with the given identity.
//
// Returns:
//   - error: ErrNotFound if no accessory has that identity
func (r *Registry) Get(id string) (*Accessory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return a, nil
}

// Remove unregisters the accessory with the given identity and reports
// whether it was present.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok
}

// List returns all registered accessories sorted by identity, for
// deterministic iteration and API output.
func (r *Registry) List() []*Accessory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Accessory, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// IDs returns the registered identities sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of registered accessories.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
