package address

import "context"

// Resolver returns the standardized counterparts of addresses.
// Implementations can use external APIs like USPS Web Tools.
type Resolver interface {
	// Resolve standardizes addrs. Every submitted address gets a slot in the
	// result, keyed by the pointer that was submitted. A transport or service
	// failure for the whole call is returned as the error.
	Resolve(ctx context.Context, addrs []*Address) (*Result, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, addrs []*Address) (*Result, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, addrs []*Address) (*Result, error) {
	return f(ctx, addrs)
}

// Slot pairs a submitted address with its standardized version. Err is set when
// the service reported a problem with this address only; Output then carries
// whatever the service returned for it.
type Slot struct {
	Input  *Address
	Output *Address
	Err    error
}

// Result maps submitted addresses (by identity) to their standardized
// versions. It is not modified after construction.
type Result struct {
	slots []Slot
	index map[*Address]int
}

// NewResult builds a Result from slots in submission order.
func NewResult(slots ...Slot) (*Result, error) {
	r := &Result{
		slots: make([]Slot, 0, len(slots)),
		index: make(map[*Address]int, len(slots)),
	}
	for _, s := range slots {
		if s.Input == nil || (s.Output == nil && s.Err == nil) {
			return nil, ErrResultMismatch
		}
		r.index[s.Input] = len(r.slots)
		r.slots = append(r.slots, s)
	}
	return r, nil
}

// Get returns the standardized version of addr, or the error the service
// reported for it.
func (r *Result) Get(addr *Address) (*Address, error) {
	s, ok := r.Slot(addr)
	if !ok {
		return nil, ErrMissingSlot
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Output, nil
}

// Slot returns the slot of addr.
func (r *Result) Slot(addr *Address) (Slot, bool) {
	if r == nil {
		return Slot{}, false
	}
	i, ok := r.index[addr]
	if !ok {
		return Slot{}, false
	}
	return r.slots[i], true
}

// Slots returns the slots in submission order.
func (r *Result) Slots() []Slot {
	if r == nil {
		return nil
	}
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out
}

// Len returns the number of slots.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.slots)
}

// Map returns the result as plain field maps, for diagnostics.
func (r *Result) Map() []map[string]any {
	out := make([]map[string]any, 0, r.Len())
	for _, s := range r.Slots() {
		entry := map[string]any{"input": s.Input.Fields()}
		if s.Output != nil {
			entry["output"] = s.Output.Fields()
		}
		if s.Err != nil {
			entry["error"] = s.Err.Error()
		}
		out = append(out, entry)
	}
	return out
}
