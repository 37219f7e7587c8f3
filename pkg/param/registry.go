package param

import (
	"sync"

	"github.com/elk-audio/sushi-go/pkg/status"
)

// Registry owns a Processor's parameter table, keyed by a 32-bit id
// unique within the owning Processor (spec.md §3: "Parameters and
// properties carry ids unique within their owning Processor").
type Registry struct {
	mu     sync.RWMutex
	params map[uint32]*Parameter
	order  []uint32
}

// NewRegistry creates an empty parameter registry.
func NewRegistry() *Registry {
	return &Registry{
		params: make(map[uint32]*Parameter),
		order:  make([]uint32, 0),
	}
}

// Add registers one or more parameters. Duplicate ids are silently
// skipped, matching the teacher's registry behavior.
func (r *Registry) Add(params ...*Parameter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range params {
		if _, exists := r.params[p.ID]; exists {
			continue
		}
		r.params[p.ID] = p
		r.order = append(r.order, p.ID)
	}
}

// Get retrieves a parameter by id, or nil if unknown.
func (r *Registry) Get(id uint32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.params[id]
}

// GetByIndex retrieves a parameter by its position in registration order.
func (r *Registry) GetByIndex(index int32) *Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= int32(len(r.order)) {
		return nil
	}
	return r.params[r.order[index]]
}

// Count returns the number of registered parameters.
func (r *Registry) Count() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int32(len(r.order))
}

// All returns every parameter in registration order.
func (r *Registry) All() []*Parameter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Parameter, len(r.order))
	for i, id := range r.order {
		result[i] = r.params[id]
	}
	return result
}

// Set applies a normalized value to the named parameter, returning the
// error taxonomy from spec.md §4.2: OUT_OF_RANGE if the id is unknown,
// INVALID_ARGUMENTS if the value falls outside [0,1].
func (r *Registry) Set(id uint32, normalized float64) status.Status {
	if normalized < 0 || normalized > 1 {
		return status.New(status.InvalidArguments, "parameter %d value %f outside [0,1]", id, normalized)
	}
	p := r.Get(id)
	if p == nil {
		return status.New(status.OutOfRange, "unknown parameter id %d", id)
	}
	p.SetValue(normalized)
	return status.Ok
}

// PropertyRegistry owns a Processor's property table.
type PropertyRegistry struct {
	mu    sync.RWMutex
	props map[uint32]*Property
	order []uint32
}

// NewPropertyRegistry creates an empty property registry.
func NewPropertyRegistry() *PropertyRegistry {
	return &PropertyRegistry{
		props: make(map[uint32]*Property),
		order: make([]uint32, 0),
	}
}

// Add registers one or more properties, skipping duplicate ids.
func (r *PropertyRegistry) Add(props ...*Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range props {
		if _, exists := r.props[p.ID]; exists {
			continue
		}
		r.props[p.ID] = p
		r.order = append(r.order, p.ID)
	}
}

// Get retrieves a property by id, or nil if unknown.
func (r *PropertyRegistry) Get(id uint32) *Property {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.props[id]
}

// All returns every property in registration order.
func (r *PropertyRegistry) All() []*Property {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Property, len(r.order))
	for i, id := range r.order {
		result[i] = r.props[id]
	}
	return result
}
