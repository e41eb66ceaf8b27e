package survey

import (
	"fmt"
	"sync"
)

// Registry owns item definitions and the instance arena of array items.
//
// Instances of a prototype are stored in a slice indexed by instance
// number minus one, so "next instance" is an allocate-or-fetch call.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	byName    map[string]*ItemDef
	order     []*ItemDef
	instances map[*ItemDef][]*ItemDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:    make(map[string]*ItemDef),
		instances: make(map[*ItemDef][]*ItemDef),
	}
}

// Define registers a new item. Array items are registered as their
// prototype (instance 1).
func (r *Registry) Define(variable string, typ ItemType, array bool, units ...string) (*ItemDef, error) {
	if variable == "" {
		return nil, fmt.Errorf("item variable name is required")
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("item %s: unknown type %q", variable, typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[variable]; exists {
		return nil, fmt.Errorf("item %s: already defined", variable)
	}

	def := &ItemDef{Variable: variable, Type: typ, Array: array, Units: units}
	if array {
		def.instance = 1
		r.instances[def] = []*ItemDef{def}
	}
	r.byName[variable] = def
	r.order = append(r.order, def)
	return def, nil
}

// MustDefine is like Define but panics on error.
// Use only in tests or when inputs are known to be valid.
func (r *Registry) MustDefine(variable string, typ ItemType, array bool, units ...string) *ItemDef {
	def, err := r.Define(variable, typ, array, units...)
	if err != nil {
		panic(err)
	}
	return def
}

// Lookup returns the prototype registered under variable.
func (r *Registry) Lookup(variable string) (*ItemDef, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, ok := r.byName[variable]
	return def, ok
}

// Items returns prototypes in declaration order.
func (r *Registry) Items() []*ItemDef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ItemDef, len(r.order))
	copy(out, r.order)
	return out
}

// Resolve returns the definition for a key, allocating array instances
// as needed.
func (r *Registry) Resolve(key Key) (*ItemDef, error) {
	proto, ok := r.Lookup(key.Variable)
	if !ok {
		return nil, fmt.Errorf("unknown item %s", key.Variable)
	}
	if !proto.Array {
		if key.Instance != 0 {
			return nil, fmt.Errorf("item %s is not an array", key.Variable)
		}
		return proto, nil
	}
	n := key.Instance
	if n == 0 {
		n = 1
	}
	if n < 0 {
		return nil, fmt.Errorf("item %s: invalid instance %d", key.Variable, key.Instance)
	}
	return r.Instance(proto, n), nil
}

// Instance returns instance n of an array prototype, allocating the chain
// up to n. Panics with *StructuralError if proto is not an array
// prototype or n is below 1.
func (r *Registry) Instance(proto *ItemDef, n int) *ItemDef {
	if !proto.Array {
		panic(structural(proto.Variable, "instance requested on a non-array item"))
	}
	if !proto.IsPrototype() {
		panic(structural(proto.Variable, "instance %d used as a prototype", proto.instance))
	}
	if n < 1 {
		panic(structural(proto.Variable, "instance %d does not exist", n))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	chain := r.instances[proto]
	if len(chain) == 0 {
		chain = []*ItemDef{proto}
	}
	for len(chain) < n {
		chain = append(chain, &ItemDef{
			Variable: proto.Variable,
			Type:     proto.Type,
			Array:    true,
			Units:    proto.Units,
			instance: len(chain) + 1,
			proto:    proto,
		})
	}
	r.instances[proto] = chain
	return chain[n-1]
}

// Next returns the instance following d in its array chain.
func (r *Registry) Next(d *ItemDef) *ItemDef {
	return r.Instance(d.Prototype(), d.InstanceNumber()+1)
}
