package prompt

// Store exposes module retrieval for HTTP handlers.
type Store interface {
	List() []Module
	FindByID(id string) (Module, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Module
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied modules.
func NewMemoryStore(items []Module) *MemoryStore {
	return &MemoryStore{items: append([]Module(nil), items...)}
}

// List returns the modules in prompt order.
func (s *MemoryStore) List() []Module {
	return append([]Module(nil), s.items...)
}

// FindByID looks up a module by identifier.
func (s *MemoryStore) FindByID(id string) (Module, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Module{}, false
}
